package broadcast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benmeehan/iot-link/internal/models"
	"github.com/benmeehan/iot-link/pkg/encryption"
)

const (
	// MaxDatagramSize keeps frames below common path MTUs.
	MaxDatagramSize = 1400

	frameMagic   = "IOTL"
	frameVersion = 1
	flagSealed   = 0x01
	sealInfo     = "iot-link broadcast"
	headerSize   = len(frameMagic) + 3
)

// Encoder turns a BroadcastConfig into the datagrams sent each round.
type Encoder interface {
	Encode(cfg models.BroadcastConfig) ([][]byte, error)
}

// SealedEncoder frames a BroadcastConfig as
//
//	magic(4) | version(1) | flags(1) | tokenLen(1) | token | body
//
// where body is the JSON config, AES-GCM sealed with a key derived from the
// shared key and the token when a shared key is set.
type SealedEncoder struct {
	sharedKey []byte
}

// NewSealedEncoder returns an encoder. A nil sharedKey sends the body unsealed.
func NewSealedEncoder(sharedKey []byte) *SealedEncoder {
	return &SealedEncoder{sharedKey: sharedKey}
}

// Encode produces a single frame for cfg.
func (e *SealedEncoder) Encode(cfg models.BroadcastConfig) ([][]byte, error) {
	if cfg.Token == "" {
		return nil, errors.New("broadcast token is empty")
	}
	if len(cfg.Token) > 255 {
		return nil, fmt.Errorf("broadcast token is %d bytes, limit is 255", len(cfg.Token))
	}

	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize broadcast config: %w", err)
	}

	var flags byte
	if len(e.sharedKey) > 0 {
		em, err := encryption.NewDerivedEncryptionManager(e.sharedKey, []byte(cfg.Token), sealInfo)
		if err != nil {
			return nil, err
		}
		if body, err = em.Encrypt(body); err != nil {
			return nil, err
		}
		flags |= flagSealed
	}

	var frame bytes.Buffer
	frame.WriteString(frameMagic)
	frame.WriteByte(frameVersion)
	frame.WriteByte(flags)
	frame.WriteByte(byte(len(cfg.Token)))
	frame.WriteString(cfg.Token)
	frame.Write(body)

	if frame.Len() > MaxDatagramSize {
		return nil, fmt.Errorf("broadcast frame is %d bytes, limit is %d", frame.Len(), MaxDatagramSize)
	}
	return [][]byte{frame.Bytes()}, nil
}

// DecodeFrame parses a frame produced by SealedEncoder.
func DecodeFrame(frame, sharedKey []byte) (models.BroadcastConfig, error) {
	var cfg models.BroadcastConfig

	if len(frame) < headerSize || string(frame[:len(frameMagic)]) != frameMagic {
		return cfg, errors.New("not a provisioning frame")
	}
	rest := frame[len(frameMagic):]
	if rest[0] != frameVersion {
		return cfg, fmt.Errorf("unsupported frame version %d", rest[0])
	}
	flags := rest[1]
	tokenLen := int(rest[2])
	rest = rest[3:]
	if len(rest) < tokenLen {
		return cfg, errors.New("truncated frame")
	}
	token, body := rest[:tokenLen], rest[tokenLen:]

	if flags&flagSealed != 0 {
		if len(sharedKey) == 0 {
			return cfg, errors.New("frame is sealed but no shared key was given")
		}
		em, err := encryption.NewDerivedEncryptionManager(sharedKey, token, sealInfo)
		if err != nil {
			return cfg, err
		}
		if body, err = em.Decrypt(body); err != nil {
			return cfg, err
		}
	}

	if err := json.Unmarshal(body, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse frame body: %w", err)
	}
	if cfg.Token != string(token) {
		return cfg, errors.New("frame token does not match body")
	}
	return cfg, nil
}
