package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/alias"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/network"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Syncer gives every local interface without an alias one named after the
// interface.
type Syncer struct {
	host     *Host
	list     func() ([]network.Interface, error)
	interval time.Duration
	last     []network.Interface
}

// NewSyncer returns a Syncer importing network.LocalInterfaces into host.
func NewSyncer(host *Host, interval time.Duration) *Syncer {
	return &Syncer{host: host, list: network.LocalInterfaces, interval: interval}
}

// SyncOnce imports the current local interfaces and returns how many aliases
// were added. Interfaces whose address already has an alias are left alone;
// name clashes and a full table are logged and skipped. Storage failures are
// aggregated into the returned error.
func (s *Syncer) SyncOnce() (int, error) {
	ifaces, err := s.list()
	if err != nil {
		return 0, err
	}
	network.LogInterfaceChanges(s.last, ifaces)
	s.last = ifaces

	added := 0
	var errs []error
	for _, iface := range ifaces {
		if _, ok := s.host.FindByAddress(iface.Address.Net()); ok {
			glog.V(4).Infof("Interface %s already has an alias", iface.Name)
			continue
		}
		err := s.host.Insert(iface.Address.Net(), iface.Name)
		switch {
		case err == nil:
			added++
			glog.Infof("Added alias %q for interface address %s", iface.Name, iface.Address)
		case errors.Is(err, alias.ErrDuplicateAddress):
			// aliased by someone else between the lookup and the insert
		case errors.Is(err, alias.ErrDuplicateName), errors.Is(err, alias.ErrCapacityExceeded):
			glog.Warningf("Not adding alias for interface %s: %v", iface.Name, err)
		default:
			errs = append(errs, err)
		}
	}
	return added, utilerrors.NewAggregate(errs)
}

// Run calls SyncOnce every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	glog.Infof("Syncing local interface aliases every %s", s.interval)
	wait.UntilWithContext(ctx, func(context.Context) {
		if _, err := s.SyncOnce(); err != nil {
			glog.Errorf("Failed to sync local interface aliases: %v", err)
		}
	}, s.interval)
}
