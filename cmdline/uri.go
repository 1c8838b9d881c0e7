package cmdline

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	Scheme      = "mtasa"
	DefaultPort = 22003
)

// Directive is a request to connect to a server. The zero value requests
// nothing.
type Directive struct {
	Host     string
	Port     uint16
	Nick     string
	Password string
}

func (d Directive) Valid() bool {
	return d.Host != "" && d.Port != 0
}

// Command renders the directive as a connect command line.
func (d Directive) Command() string {
	if !d.Valid() {
		return ""
	}
	cmd := fmt.Sprintf("connect %s %d %s", d.Host, d.Port, d.Nick)
	if d.Password != "" {
		cmd += " " + d.Password
	}
	return cmd
}

// ParseURI reads scheme://[nick[:password]@]host[:port]. The credentials end
// at the last '@' so a nick or password may itself contain '@'. Anything that
// cannot be read yields the zero Directive.
func ParseURI(uri, defaultNick string) Directive {
	rest, ok := cutScheme(strings.TrimSpace(uri))
	if !ok {
		return Directive{}
	}
	rest = strings.TrimRight(rest, "/")

	var creds string
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		creds, rest = rest[:i], rest[i+1:]
	}
	d := Directive{Nick: defaultNick}
	host, port, ok := splitHostPort(rest)
	if !ok {
		return Directive{}
	}
	d.Host, d.Port = host, port
	if creds != "" {
		nick, pass, _ := strings.Cut(creds, ":")
		if nick != "" {
			d.Nick = unescape(nick)
		}
		d.Password = unescape(pass)
	}
	return d
}

func cutScheme(uri string) (string, bool) {
	prefix := Scheme + "://"
	if len(uri) < len(prefix) || !strings.EqualFold(uri[:len(prefix)], prefix) {
		return "", false
	}
	return uri[len(prefix):], true
}

func splitHostPort(s string) (string, uint16, bool) {
	host, portText, hasPort := strings.Cut(s, ":")
	if host == "" || strings.ContainsAny(host, " /") {
		return "", 0, false
	}
	if !hasPort || portText == "" {
		return host, DefaultPort, true
	}
	port, err := strconv.ParseUint(portText, 10, 16)
	if err != nil || port == 0 {
		return "", 0, false
	}
	return host, uint16(port), true
}

func unescape(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}

// ParseConnectArgs reads "host[:port] [port] [nick] [password]" as given to
// the -c flag and the connect command.
func ParseConnectArgs(args, defaultNick string) Directive {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return Directive{}
	}
	host, port, ok := splitHostPort(fields[0])
	if !ok {
		return Directive{}
	}
	d := Directive{Host: host, Port: port, Nick: defaultNick}
	fields = fields[1:]
	if len(fields) > 0 {
		if p, err := strconv.ParseUint(fields[0], 10, 16); err == nil && p != 0 {
			d.Port = uint16(p)
			fields = fields[1:]
		}
	}
	if len(fields) > 0 {
		d.Nick = fields[0]
		fields = fields[1:]
	}
	if len(fields) > 0 {
		d.Password = fields[0]
	}
	return d
}
