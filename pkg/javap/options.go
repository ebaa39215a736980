package javap

import (
	"fmt"
	"strings"

	"github.com/daimatz/gojavap/pkg/classfile"
)

// Access selects which members are printed by their declared visibility.
type Access int

const (
	AccessPackage   Access = iota // everything but private members
	AccessPublic                  // public members only
	AccessProtected               // public and protected members
	AccessPrivate                 // all members
)

var accessNames = map[Access]string{
	AccessPackage:   "package",
	AccessPublic:    "public",
	AccessProtected: "protected",
	AccessPrivate:   "private",
}

func (a Access) String() string {
	if s, ok := accessNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// ParseAccess converts "public", "protected", "package" or "private" to
// an Access. The empty string selects AccessPackage.
func ParseAccess(s string) (Access, error) {
	if s == "" {
		return AccessPackage, nil
	}
	for a, name := range accessNames {
		if strings.EqualFold(s, name) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown access level %q", s)
}

func (a Access) allows(flags uint16) bool {
	switch {
	case flags&classfile.AccPublic != 0:
		return true
	case flags&classfile.AccPrivate != 0:
		return a == AccessPrivate
	case flags&classfile.AccProtected != 0:
		return a != AccessPublic
	default:
		return a == AccessPackage || a == AccessPrivate
	}
}

// Options controls what the printer shows. The zero value prints
// declarations of every non-private member and nothing else.
type Options struct {
	Access        Access
	Disassemble   bool // -c
	LineAndLocals bool // -l
	Signatures    bool // -s
	Verbose       bool // -verbose, implies AllAttributes
	AllAttributes bool // -all

	// Tree makes Batch render Outline instead of the listing.
	Tree bool
}

// plain reports whether only declarations are printed, in which case
// they are indented.
func (o Options) plain() bool {
	return !(o.LineAndLocals || o.Disassemble || o.Verbose || o.Signatures || o.AllAttributes)
}
