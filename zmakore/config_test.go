package zmakore

import "testing"

func TestConfig_Set(t *testing.T) {
	var c Config
	c.Set("-Wall").Set("-std=c++17")
	if !c.Has("-Wall") {
		t.Error("flag -Wall is missing")
	}
	if v := c.Get("-std"); v != "c++17" {
		t.Errorf("-std has value '%s'", v)
	}
	t.Run("more than one '='", func(t *testing.T) {
		var c Config
		c.Set("-Wl,-rpath=$ORIGIN=..")
		if !c.Has("-Wl,-rpath=$ORIGIN=..") {
			t.Error("flag with two '=' must be a verbatim key")
		}
	})
	t.Run("reset keeps position", func(t *testing.T) {
		var c Config
		c.SetAll("-std=c++14", "-Wall")
		c.Set("-std=c++17")
		if s := c.Render(nil); s != "-std=c++17 -Wall" {
			t.Errorf("rendered '%s'", s)
		}
	})
}

func TestConfig_Render(t *testing.T) {
	var c Config
	c.SetAll("-Wall", "-g")
	def := new(Config).SetAll("crs", "-g")
	if s := c.Render(def); s != "-Wall -g crs" {
		t.Errorf("rendered '%s'", s)
	}
	if s := c.String(); s != "-Wall -g" {
		t.Errorf("rendered without defaults '%s'", s)
	}
	t.Run("empty with defaults", func(t *testing.T) {
		var c Config
		if s := c.Render(def); s != "crs -g" {
			t.Errorf("rendered '%s'", s)
		}
		if !c.Empty() {
			t.Error("config must stay empty")
		}
	})
}

func TestConfig_Merge(t *testing.T) {
	mk := func() (*Config, *Config) {
		return new(Config).SetAll("-std=c++17", "-Wall"),
			new(Config).SetAll("-std=c++20", "-fPIC")
	}
	t.Run("keep own", func(t *testing.T) {
		c, o := mk()
		c.Merge(o, false)
		if s := c.String(); s != "-std=c++17 -Wall -fPIC" {
			t.Errorf("merged to '%s'", s)
		}
	})
	t.Run("prior other", func(t *testing.T) {
		c, o := mk()
		c.Merge(o, true)
		if s := c.String(); s != "-std=c++20 -Wall -fPIC" {
			t.Errorf("merged to '%s'", s)
		}
	})
	t.Run("nil other", func(t *testing.T) {
		c, _ := mk()
		c.Merge(nil, true)
		if s := c.String(); s != "-std=c++17 -Wall" {
			t.Errorf("merged to '%s'", s)
		}
	})
}
