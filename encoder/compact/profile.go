package compact

import (
	"errors"
	"fmt"
	"strings"
)

// Profile selects the allocation strategy used while decoding.
type Profile int

const (
	// Hosted pre-allocates containers from declared lengths, bounded by the remaining input.
	Hosted Profile = iota
	// Constrained never pre-allocates and enforces hard caps on declared lengths.
	Constrained
)

const (
	ConstrainedMaxItems = 1 << 16
	ConstrainedMaxBytes = 1 << 24
)

var ErrUnknownProfile = errors.New("unknown decode profile (known: hosted, constrained)")

func (p Profile) String() string {
	switch p {
	case Hosted:
		return "hosted"
	case Constrained:
		return "constrained"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

func (p Profile) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Profile) Set(s string) error {
	switch strings.ToLower(s) {
	case "hosted":
		*p = Hosted
	case "constrained":
		*p = Constrained
	default:
		return ErrUnknownProfile
	}
	return nil
}

func (p *Profile) Type() string {
	return "Profile"
}

func (p *Profile) UnmarshalText(text []byte) error {
	return p.Set(string(text))
}

type limits struct {
	maxItems    int
	maxBytes    int
	preallocate bool
}

func (p Profile) limits() limits {
	if p == Constrained {
		return limits{maxItems: ConstrainedMaxItems, maxBytes: ConstrainedMaxBytes}
	}
	return limits{preallocate: true}
}

type Option func(*Reader)

func WithProfile(p Profile) Option {
	return func(r *Reader) {
		r.profile = p
		r.limits = p.limits()
	}
}
