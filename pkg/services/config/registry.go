package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// DefaultDataset names the dataset served from data.path.
const DefaultDataset = "default"

// Registry resolves dataset names to their profiles.
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.DatasetProfile, error)
	GetProfile(ctx context.Context, name string) (*domain.DatasetProfile, error)
}

type iniRegistry struct {
	cfg *ini.File
	dir string
}

// NewRegistry reads dataset profiles from an ini file. Each non-empty
// section is a dataset with a path key and optional title and delimiter keys.
// Relative local paths are resolved against the file's directory.
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, err
	}
	return &iniRegistry{cfg: cfg, dir: filepath.Dir(path)}, nil
}

func (cr *iniRegistry) GetProfiles(ctx context.Context) ([]domain.DatasetProfile, error) {
	profiles := make([]domain.DatasetProfile, 0)
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		p, err := cr.GetProfile(ctx, section.Name())
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

func (cr *iniRegistry) GetProfile(_ context.Context, name string) (*domain.DatasetProfile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil || len(section.Keys()) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, name)
	}

	path := section.Key("path").String()
	if path == "" {
		return nil, fmt.Errorf("profile %s has no path", name)
	}
	if !strings.Contains(path, "://") && !filepath.IsAbs(path) {
		path = filepath.Join(cr.dir, path)
	}

	delimiter, err := parseDelimiter(section.Key("delimiter").String())
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", name, err)
	}

	return &domain.DatasetProfile{
		Name:      name,
		Title:     section.Key("title").MustString(name),
		Path:      path,
		Delimiter: delimiter,
	}, nil
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

type staticRegistry struct {
	profiles []domain.DatasetProfile
}

// NewStaticRegistry serves a fixed list of profiles.
func NewStaticRegistry(profiles ...domain.DatasetProfile) Registry {
	return &staticRegistry{profiles: profiles}
}

func (sr *staticRegistry) GetProfiles(_ context.Context) ([]domain.DatasetProfile, error) {
	return append([]domain.DatasetProfile{}, sr.profiles...), nil
}

func (sr *staticRegistry) GetProfile(_ context.Context, name string) (*domain.DatasetProfile, error) {
	for _, p := range sr.profiles {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, name)
}

// RegistryFor returns the ini registry named by data.profiles, or a registry
// holding the single default dataset at data.path.
func RegistryFor(cfg DataConfig) (Registry, error) {
	if cfg.Profiles != "" {
		return NewRegistry(cfg.Profiles)
	}
	return NewStaticRegistry(domain.DatasetProfile{
		Name:      DefaultDataset,
		Title:     "Sales Dashboard",
		Path:      cfg.Path,
		Delimiter: ',',
	}), nil
}
