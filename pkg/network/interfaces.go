// Package network lists the local network interfaces and their hardware
// addresses so they can be given aliases.
package network

import (
	"fmt"
	"sort"

	"github.com/golang/glog"
	"github.com/jaypipes/ghw"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/alias"
)

// Interface is a local NIC with a 6-byte hardware address.
type Interface struct {
	Name    string
	Address alias.HardwareAddr
	Virtual bool
}

// listNICs is swapped out in tests
var listNICs = func() ([]*ghw.NIC, error) {
	net, err := ghw.Network()
	if err != nil {
		return nil, err
	}
	return net.NICs, nil
}

// LocalInterfaces returns the local NICs sorted by name. The loopback and
// NICs without a usable 6-byte hardware address are skipped.
func LocalInterfaces() ([]Interface, error) {
	nics, err := listNICs()
	if err != nil {
		return nil, fmt.Errorf("failed to get network info: %w", err)
	}

	ifaces := make([]Interface, 0, len(nics))
	for _, nic := range nics {
		if nic == nil || nic.Name == "lo" {
			continue
		}
		addr, err := alias.ParseAddress(nic.MacAddress)
		if err != nil || addr.IsZero() {
			glog.V(4).Infof("Skipping NIC %s without a usable hardware address (%q)", nic.Name, nic.MacAddress)
			continue
		}
		ifaces = append(ifaces, Interface{Name: nic.Name, Address: addr, Virtual: nic.IsVirtual})
	}
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })
	return ifaces, nil
}

// LogInterfaceChanges compares old and new interface lists and logs changes
func LogInterfaceChanges(oldIfaces []Interface, newIfaces []Interface) {
	oldIfaceMap := make(map[alias.HardwareAddr]string, len(oldIfaces))
	for _, iface := range oldIfaces {
		oldIfaceMap[iface.Address] = iface.Name
	}

	addedIfaces := []string{}
	for _, iface := range newIfaces {
		if _, ok := oldIfaceMap[iface.Address]; !ok {
			addedIfaces = append(addedIfaces, fmt.Sprintf("%s(%s)", iface.Name, iface.Address))
		} else {
			// Interface found, remove from map to track removals
			delete(oldIfaceMap, iface.Address)
		}
	}

	// Remaining interfaces in the map are the removed ones
	removedIfaces := make([]string, 0, len(oldIfaceMap))
	for addr, name := range oldIfaceMap {
		removedIfaces = append(removedIfaces, fmt.Sprintf("%s(%s)", name, addr))
	}
	sort.Strings(removedIfaces)

	// Log changes
	if len(addedIfaces) > 0 {
		glog.Infof("Network interfaces added: %v", addedIfaces)
	}
	if len(removedIfaces) > 0 {
		glog.Warningf("Network interfaces removed: %v", removedIfaces)
	}
	if len(addedIfaces) == 0 && len(removedIfaces) == 0 && len(newIfaces) > 0 {
		glog.V(2).Infof("No network interface changes detected (%d interfaces)", len(newIfaces))
	}
}
