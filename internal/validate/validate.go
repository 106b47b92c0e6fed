// Package validate is the pure, synchronous Input Validator of spec.md
// §4.1. Every external-origin string that will reach a sub-process,
// filesystem call, or network call must pass the matching function here
// first; callers must not proceed past a returned error.
package validate

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

var (
	nameRe    = regexp.MustCompile(`^[A-Za-z0-9._+-]{1,255}$`)
	versionRe = regexp.MustCompile(`^[A-Za-z0-9._+-]{1,64}$`)
	tokenRe   = regexp.MustCompile(`^[A-Za-z0-9._+-]+$`)
	checksumRe = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

var reservedWindowsNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// attackSubstrings are well-known attack markers that fail shell-safe-token
// validation outright even if the character class would otherwise pass
// (spec.md §4.1 "Shell-safe token").
var attackSubstrings = []string{
	"rm -rf", "/etc/", "$(", "`", "&&", "||", ";", "|",
}

// allowedPathPrefixes canonicalizes-inside set for filesystem paths
// (spec.md §4.1 "Filesystem path").
func allowedPathPrefixes() []string {
	home, _ := os.UserHomeDir()
	prefixes := []string{"/tmp", "/var/tmp", "/opt", "/usr/local", "/var/cache"}
	if home != "" {
		prefixes = append(prefixes, home)
	}
	return prefixes
}

// PackageName validates a package name per spec.md §4.1.
func PackageName(name string) error {
	if !nameRe.MatchString(name) {
		return errs.New(errs.Validation, "invalid package name: "+name).
			WithContext("name", name)
	}
	if name == "." || name == ".." {
		return errs.New(errs.Validation, "package name must not be . or ..").
			WithContext("name", name)
	}
	if reservedWindowsNames[strings.ToLower(name)] {
		return errs.New(errs.Validation, "package name is a reserved Windows device name").
			WithContext("name", name)
	}
	return nil
}

// BackendTag validates a backend tag against the enumerated set
// (spec.md §4.1 "Backend tag").
func BackendTag(tag string) error {
	if !types.Backend(tag).Valid() {
		return errs.New(errs.Validation, "unknown backend: "+tag).
			WithContext("backend", tag)
	}
	return nil
}

// VersionString validates a version string per spec.md §4.1.
func VersionString(v string) error {
	if !versionRe.MatchString(v) {
		return errs.New(errs.Validation, "invalid version string: "+v).
			WithContext("version", v)
	}
	return nil
}

// privateV4 are the IPv4 ranges spec.md §4.1 treats as internal
// (10/8, 172.16/12, 192.168/16, 127/8).
var privateV4 = []*net.IPNet{
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
	mustCIDR("127.0.0.0/8"),
}

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

// URL validates u per spec.md §4.1: parseable, scheme in {http, https},
// length <= 2048, host is not loopback and not a private/ULA address. This
// is the SSRF guard referenced by Testable Scenario S6.
func URL(raw string) error {
	if len(raw) > 2048 {
		return errs.New(errs.Validation, "url exceeds maximum length").
			WithContext("url", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errs.Wrap(errs.Validation, err, "url is not parseable").
			WithContext("url", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errs.New(errs.Validation, "url scheme must be http or https").
			WithContext("url", raw)
	}
	host := u.Hostname()
	if host == "" {
		return errs.New(errs.Validation, "url has no host").WithContext("url", raw)
	}
	if err := rejectPrivateHost(host); err != nil {
		return err.WithContext("url", raw)
	}
	return nil
}

func rejectPrivateHost(host string) *errs.Error {
	if strings.EqualFold(host, "localhost") {
		return errs.New(errs.Security, "url host resolves to loopback (SSRF guard)")
	}
	ip := net.ParseIP(host)
	if ip == nil {
		// Not a literal IP; DNS resolution is a network call and is out of
		// scope for the validator, which must stay pure and synchronous.
		// Hostname literals are accepted here without a DNS lookup; the
		// addresses they resolve to are not checked.
		return nil
	}
	if ip.IsLoopback() {
		return errs.New(errs.Security, "url host is a loopback address (SSRF guard)")
	}
	if ip.To4() != nil {
		for _, n := range privateV4 {
			if n.Contains(ip) {
				return errs.New(errs.Security, "url host is in a private IPv4 range (SSRF guard)")
			}
		}
	} else {
		if ip.IsPrivate() || isULA(ip) {
			return errs.New(errs.Security, "url host is a private/ULA IPv6 address (SSRF guard)")
		}
	}
	return nil
}

func isULA(ip net.IP) bool {
	return len(ip) == net.IPv6len && ip[0]&0xfe == 0xfc
}

// Path validates a filesystem path per spec.md §4.1: no null bytes, no
// traversal, canonicalizes inside an allowed prefix.
func Path(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", errs.New(errs.Validation, "path contains a null byte").WithContext("path", p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errs.Wrap(errs.Validation, err, "path is not resolvable").WithContext("path", p)
	}
	clean := filepath.Clean(abs)
	if strings.Contains(p, "..") && !withinAny(clean, allowedPathPrefixes()) {
		return "", errs.New(errs.Validation, "path traversal outside allowed prefixes").WithContext("path", p)
	}
	if !withinAny(clean, allowedPathPrefixes()) {
		return "", errs.New(errs.Validation, "path is outside allowed prefixes").WithContext("path", p)
	}
	return clean, nil
}

func withinAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		rel, err := filepath.Rel(prefix, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ShellSafeToken validates a token destined for a sub-process argument,
// per spec.md §4.1 "Shell-safe token".
func ShellSafeToken(tok string) error {
	if tok == "" {
		return errs.New(errs.Validation, "empty token")
	}
	if strings.ContainsAny(tok, "\n\t\x00") {
		return errs.New(errs.Validation, "token contains a control character").WithContext("token", tok)
	}
	for _, bad := range attackSubstrings {
		if strings.Contains(tok, bad) {
			return errs.New(errs.Security, "token contains a known attack substring").WithContext("token", tok)
		}
	}
	if !tokenRe.MatchString(tok) {
		return errs.New(errs.Validation, "token contains disallowed characters").WithContext("token", tok)
	}
	return nil
}

// Checksum validates a checksum string per spec.md §4.1: hex, length in
// {32, 40, 64, 128}. MD5 (length 32) parses successfully here but is
// rejected downstream at verification time (spec.md §9 Open Questions).
func Checksum(sum string) error {
	if !checksumRe.MatchString(sum) {
		return errs.New(errs.Validation, "checksum is not hex").WithContext("checksum", sum)
	}
	switch len(sum) {
	case 32, 40, 64, 128:
		return nil
	default:
		return errs.New(errs.Validation, "checksum has an unsupported length").WithContext("checksum", sum)
	}
}
