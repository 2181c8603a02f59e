package zone

import (
	"fmt"
	"io"
	"os"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/miekg/dns"
)

// Parse reads a textual zone file from r and returns its contents.  origin is
// the zone name; fileName is used in error messages only.  Records with
// owners outside the zone are dropped, the way authoritative servers load
// such files.
func Parse(r io.Reader, origin, fileName string) (z *Contents, err error) {
	defer func() { err = errors.Annotate(err, "parsing zone %q: %w", origin) }()

	z = New(origin)

	zp := dns.NewZoneParser(r, origin, fileName)
	zp.SetIncludeAllowed(false)

	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		insErr := z.Insert(rr)
		if insErr != nil && !errors.Is(insErr, ErrOutOfZone) {
			return nil, insErr
		}
	}

	err = zp.Err()
	if err != nil {
		return nil, err
	}

	return z, nil
}

// ParseFile reads a textual zone file from disk.  See [Parse].
func ParseFile(path, origin string) (z *Contents, err error) {
	f, err := os.Open(path)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}
	defer func() { err = errors.WithDeferred(err, f.Close()) }()

	z, err = Parse(f, origin, path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	return z, nil
}
