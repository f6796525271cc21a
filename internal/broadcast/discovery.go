package broadcast

import (
	"net"

	gnet "github.com/shirou/gopsutil/net"

	"github.com/benmeehan/iot-link/internal/utils"
)

// LimitedBroadcastAddress is used when no interface broadcast address is found.
const LimitedBroadcastAddress = "255.255.255.255"

// InterfaceLister returns the host's network interfaces.
type InterfaceLister func() ([]gnet.InterfaceStat, error)

// HostInterfaces lists interfaces through gopsutil.
func HostInterfaces() ([]gnet.InterfaceStat, error) {
	return gnet.Interfaces()
}

// DiscoverBroadcastAddresses returns the directed broadcast address of every up,
// non-loopback IPv4 interface that supports broadcast, or the limited broadcast
// address when there is none.
func DiscoverBroadcastAddresses(list InterfaceLister) ([]string, error) {
	interfaces, err := list()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var addresses []string
	for _, iface := range interfaces {
		flags := utils.SliceToSet(iface.Flags)
		if !has(flags, "up") || has(flags, "loopback") || !has(flags, "broadcast") {
			continue
		}

		for _, addr := range iface.Addrs {
			ip, ipNet, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}

			broadcast := directedBroadcast(ip4, ipNet.Mask).String()
			if _, dup := seen[broadcast]; dup {
				continue
			}
			seen[broadcast] = struct{}{}
			addresses = append(addresses, broadcast)
		}
	}

	if len(addresses) == 0 {
		return []string{LimitedBroadcastAddress}, nil
	}
	return addresses, nil
}

func directedBroadcast(ip net.IP, mask net.IPMask) net.IP {
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	out := make(net.IP, net.IPv4len)
	for i := range out {
		out[i] = ip[i] | ^mask[i]
	}
	return out
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
