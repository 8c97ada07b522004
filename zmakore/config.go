package zmakore

import "strings"

// Config is an insertion-ordered set of compiler or linker flags. The order
// is part of the contract: it decides flag precedence on the composed
// command line.
type Config struct {
	names []string
	flags map[string]string
}

// Set parses flag as "key" or "key=value". A flag with more than one '='
// is taken verbatim as a key without value.
func (c *Config) Set(flag string) *Config {
	key, val := flag, ""
	if i := strings.IndexByte(flag, '='); i >= 0 {
		if strings.IndexByte(flag[i+1:], '=') >= 0 {
			key, val = flag, ""
		} else {
			key, val = flag[:i], flag[i+1:]
		}
	}
	if c.flags == nil {
		c.flags = make(map[string]string)
	}
	if _, ok := c.flags[key]; !ok {
		c.names = append(c.names, key)
	}
	c.flags[key] = val
	return c
}

func (c *Config) SetAll(flags ...string) *Config {
	for _, f := range flags {
		c.Set(f)
	}
	return c
}

func (c *Config) Has(name string) bool {
	_, ok := c.flags[name]
	return ok
}

func (c *Config) Get(name string) string { return c.flags[name] }

func (c *Config) Empty() bool { return len(c.names) == 0 }

// Merge adopts flags from other. Keys already present keep their value
// unless priorOther is set.
func (c *Config) Merge(other *Config, priorOther bool) {
	if other == nil {
		return
	}
	for _, n := range other.names {
		if c.Has(n) && !priorOther {
			continue
		}
		if c.flags == nil {
			c.flags = make(map[string]string)
		}
		if _, ok := c.flags[n]; !ok {
			c.names = append(c.names, n)
		}
		c.flags[n] = other.flags[n]
	}
}

// Render writes the flags in insertion order, then appends flags of def that
// are not set here. def may be nil.
func (c *Config) Render(def *Config) string {
	var sb strings.Builder
	emit := func(cfg *Config, name string) {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(name)
		if v := cfg.flags[name]; v != "" {
			sb.WriteByte('=')
			sb.WriteString(v)
		}
	}
	for _, n := range c.names {
		emit(c, n)
	}
	if def != nil {
		for _, n := range def.names {
			if !c.Has(n) {
				emit(def, n)
			}
		}
	}
	return sb.String()
}

func (c *Config) String() string { return c.Render(nil) }

func (c *Config) clone() *Config {
	cp := &Config{}
	cp.Merge(c, true)
	return cp
}
