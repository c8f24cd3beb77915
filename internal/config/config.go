package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type DialplanConfig struct {
	// PublicContextMode selects whether the public context is keyed per
	// destination number ("single") or per context only ("multi").
	PublicContextMode string `yaml:"public_context_mode"`
}

type Config struct {
	ListenAddr  string        `yaml:"listen_addr"`
	DBDSN       string        `yaml:"db_dsn"`
	XMLCurlUser string        `yaml:"xmlcurl_basic_user"`
	XMLCurlPass string        `yaml:"xmlcurl_basic_pass"`
	// QueryTimeout bounds every store read; the caller is a live call leg,
	// so a stalled store must fail the lookup rather than hang it.
	QueryTimeout time.Duration  `yaml:"query_timeout"`
	Dialplan     DialplanConfig `yaml:"dialplan"`
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 5 * time.Second
	}
	if mode := os.Getenv("XMLCURL_PUBLIC_CONTEXT_MODE"); mode != "" {
		cfg.Dialplan.PublicContextMode = mode
	}
	if cfg.Dialplan.PublicContextMode == "" {
		cfg.Dialplan.PublicContextMode = "single"
	}
	if m := cfg.Dialplan.PublicContextMode; m != "single" && m != "multi" {
		return nil, fmt.Errorf("invalid public_context_mode %q", m)
	}

	return &cfg, nil
}
