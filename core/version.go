package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// StarknetVersion is the protocol version a block was produced with, e.g. "0.13.1.1".
// The empty version stands for "0.0.0".
type StarknetVersion string

var (
	Ver0_13_2 = semver.MustParse("0.13.2")
	// LatestVer is the newest protocol version headers are accepted for. Newer patch releases are
	// accepted as well.
	LatestVer = semver.MustParse("0.13.4")
)

func (v StarknetVersion) String() string {
	if v == "" {
		return "0.0.0"
	}
	return string(v)
}

// Semver keeps the first three components of the version.
func (v StarknetVersion) Semver() (*semver.Version, error) {
	return ParseBlockVersion(string(v))
}

// ParseBlockVersion computes the block version, defaulting to "0.0.0" for empty strings
func ParseBlockVersion(protocolVersion string) (*semver.Version, error) {
	if protocolVersion == "" {
		return semver.NewVersion("0.0.0")
	}

	sep := "."
	digits := strings.Split(protocolVersion, sep)
	// pad with 3 zeros in case version has less than 3 digits
	digits = append(digits, []string{"0", "0", "0"}...)

	return semver.NewVersion(strings.Join(digits[:3], sep))
}

// HasCommitments reports whether headers of this version carry the transaction, event and state
// diff commitments.
func (v StarknetVersion) HasCommitments() bool {
	ver, err := v.Semver()
	return err == nil && !ver.LessThan(Ver0_13_2)
}

// CheckBlockVersion rejects versions whose major or minor component is newer than LatestVer.
func CheckBlockVersion(version *semver.Version) error {
	supported := semver.New(LatestVer.Major(), LatestVer.Minor(), 0, "", "")
	if version.Major() > supported.Major() ||
		version.Major() == supported.Major() && version.Minor() > supported.Minor() {
		return fmt.Errorf("unsupported block version %s, latest supported is %s", version, LatestVer)
	}
	return nil
}
