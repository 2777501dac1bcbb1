// Package dc keeps datacenter addresses and server RSA keys.
package dc

import (
	"net"
	"strconv"
	"sync"

	"github.com/go-faster/errors"

	"github.com/geovex/tgsession/internal/maplist"
)

const defaultPort = "443"

var dcIP4 = [...][]string{
	{"149.154.175.50"},
	{"149.154.167.51", "95.161.76.100"},
	{"149.154.175.100"},
	{"149.154.167.91"},
	{"149.154.171.5"},
}

var dcIP6 = [...][]string{
	{"2001:b28:f23d:f001::a"},
	{"2001:67c:04e8:f002::a"},
	{"2001:b28:f23d:f003::a"},
	{"2001:67c:04e8:f004::a"},
	{"2001:b28:f23f:f005::a"},
}

var testIP4 = [...][]string{
	{"149.154.175.10"},
	{"149.154.167.40"},
	{"149.154.175.117"},
}

// Option is one reachable address of a datacenter.
type Option struct {
	ID        int
	Addr      string
	IPv6      bool
	MediaOnly bool
}

func (o Option) String() string {
	return strconv.Itoa(o.ID) + "@" + o.Addr
}

// NewOption parses addr. A negative id marks a media only address of dc -id.
func NewOption(id int, addr string) (Option, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return Option{}, errors.Wrapf(err, "dc %d address", id)
	}
	ip := net.ParseIP(host)
	return Option{
		ID:        normalize(id),
		Addr:      addr,
		IPv6:      ip != nil && ip.To4() == nil,
		MediaOnly: id < 0,
	}, nil
}

var ErrUnknownDC = errors.New("no options for dc")

// Options is a concurrent set of address candidates per dc id.
type Options struct {
	lock sync.RWMutex
	list *maplist.MapList[int, Option]
}

func NewOptions(opts ...Option) *Options {
	o := &Options{list: maplist.New[int, Option]()}
	o.Set(opts)
	return o
}

// DefaultOptions returns the well-known production or test addresses.
func DefaultOptions(test bool) *Options {
	var opts []Option
	if test {
		for i, ips := range testIP4 {
			for _, ip := range ips {
				opts = append(opts, Option{ID: i + 1, Addr: net.JoinHostPort(ip, defaultPort)})
			}
		}
		return NewOptions(opts...)
	}
	for i, ips := range dcIP6 {
		for _, ip := range ips {
			opts = append(opts, Option{ID: i + 1, Addr: net.JoinHostPort(ip, defaultPort), IPv6: true})
		}
	}
	for i, ips := range dcIP4 {
		for _, ip := range ips {
			opts = append(opts, Option{ID: i + 1, Addr: net.JoinHostPort(ip, defaultPort)})
		}
	}
	return NewOptions(opts...)
}

// Set replaces all known options.
func (o *Options) Set(opts []Option) {
	list := maplist.New[int, Option]()
	for _, opt := range opts {
		list.Add(normalize(opt.ID), opt)
	}
	o.lock.Lock()
	o.list = list
	o.lock.Unlock()
}

// Get returns the first known candidate for a dc.
func (o *Options) Get(id int) (Option, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()
	opt, ok := o.list.First(normalize(id))
	if !ok {
		return Option{}, errors.Wrapf(ErrUnknownDC, "%d", id)
	}
	return opt, nil
}

// Candidates lists usable addresses of a dc in preference order.
func (o *Options) Candidates(id int, allowIPv6 bool) []Option {
	o.lock.RLock()
	defer o.lock.RUnlock()
	var r []Option
	for _, opt := range o.list.Get(normalize(id)) {
		if opt.MediaOnly || (opt.IPv6 && !allowIPv6) {
			continue
		}
		r = append(r, opt)
	}
	return r
}

// IDs lists the known dc ids.
func (o *Options) IDs() []int {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.list.Keys()
}

// negative ids address media dcs in the obfuscated2 header
func normalize(id int) int {
	if id < 0 {
		return -id
	}
	return id
}
