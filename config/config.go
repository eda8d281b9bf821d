package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	"github.com/jinzhu/copier"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/types"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Profile struct {
	Endpoint string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Token    string        `yaml:"token,omitempty" json:"token,omitempty"`
	Format   string        `yaml:"format,omitempty" json:"format,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries  *int          `yaml:"retries,omitempty" json:"retries,omitempty"`
	PerPage  int           `yaml:"per_page,omitempty" json:"per_page,omitempty"`
}

type File struct {
	ActiveProfile string             `yaml:"active_profile,omitempty"`
	Profiles      map[string]Profile `yaml:"profiles,omitempty"`

	path   string
	exists bool
}

var Keys = []string{"endpoint", "token", "format", "timeout", "retries", "per_page"}

var Formats = []string{"table", "json", "yaml"}

func IntPtr(i int) *int {
	return &i
}

func Defaults() Profile {
	return Profile{
		Endpoint: constants.DefaultEndpoint,
		Format:   constants.DefaultFormat,
		Timeout:  30 * time.Second,
		Retries:  IntPtr(3),
		PerPage:  constants.DefaultPerPage,
	}
}

func (p Profile) RetryCount() int {
	if p.Retries == nil {
		return 0
	}

	return *p.Retries
}

// Redacted returns a copy safe to print.
func (p Profile) Redacted() Profile {
	if len(p.Token) > 8 {
		p.Token = p.Token[:4] + strings.Repeat("*", len(p.Token)-4)
	} else if p.Token != "" {
		p.Token = "****"
	}

	return p
}

// merge overlays the non-empty fields of src onto dst.
func merge(dst *Profile, src Profile) error {
	return copier.CopyWithOption(dst, &src, copier.Option{IgnoreEmpty: true, DeepCopy: true})
}

func DefaultPath() string {
	if p := os.Getenv(constants.EnvConfig); p != "" {
		return p
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}

	return filepath.Join(dir, constants.AppName, "config.yaml")
}

// Load reads the config file at path. A missing file yields an empty config.
func Load(path string) (*File, error) {
	f := &File{
		Profiles: map[string]Profile{},
		path:     path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	} else if err != nil {
		return nil, errors.Wrap(err, types.ErrCodeConfig, "failed to read config file").
			WithContext("path", path)
	}

	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, types.ErrCodeConfig, "failed to parse config file").
			WithContext("path", path)
	}

	if f.Profiles == nil {
		f.Profiles = map[string]Profile{}
	}
	f.exists = true

	return f, nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Exists() bool {
	return f.exists
}

func (f *File) ProfileNames() []string {
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Save writes the file atomically with owner-only permissions since it holds tokens.
func (f *File) Save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return errors.Wrap(err, types.ErrCodeConfig, "failed to create config directory").
			WithContext("path", f.path)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(err, types.ErrCodeConfig, "failed to marshal config")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".config-*.yaml")
	if err != nil {
		return errors.Wrap(err, types.ErrCodeConfig, "failed to create temp file").
			WithContext("path", f.path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, types.ErrCodeConfig, "failed to write config")
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrap(err, types.ErrCodeConfig, "failed to set config permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, types.ErrCodeConfig, "failed to write config")
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, types.ErrCodeConfig, "failed to replace config file").
			WithContext("path", f.path)
	}

	f.exists = true

	return nil
}

func (f *File) Use(name string) error {
	if _, ok := f.Profiles[name]; !ok {
		return errors.New(types.ErrCodeConfig, "profile not found: "+name).
			WithContext("profile", name)
	}

	f.ActiveProfile = name

	return nil
}

// Set assigns a single key on a profile, creating the profile when needed.
func (f *File) Set(profile string, key string, value string) error {
	if profile == "" {
		profile = f.active()
	}

	p := f.Profiles[profile]

	switch key {
	case "endpoint":
		if _, err := types.Check(types.UrlValidator(key), value); err != nil {
			return types.InvalidValue(key, value, err)
		}
		p.Endpoint = strings.TrimRight(value, "/")
	case "token":
		p.Token = value
	case "format":
		if err := types.OneOfValidator(key, Formats...).Validate(value); err != nil {
			return types.InvalidValue(key, value, err)
		}
		p.Format = strings.ToLower(value)
	case "timeout":
		d, err := types.Check(types.PositiveDurationValidator(key), value)
		if err != nil {
			return types.InvalidValue(key, value, err)
		}
		p.Timeout = d
	case "retries":
		i, err := types.Check(types.RangeValidator(key, 0, 10), value)
		if err != nil {
			return types.InvalidValue(key, value, err)
		}
		p.Retries = IntPtr(i)
	case "per_page":
		i, err := types.Check(types.RangeValidator(key, 1, constants.MaxPerPage), value)
		if err != nil {
			return types.InvalidValue(key, value, err)
		}
		p.PerPage = i
	default:
		return types.InvalidValue("key", key, fmt.Errorf("must be one of: %s", strings.Join(Keys, ", ")))
	}

	f.Profiles[profile] = p

	return nil
}

func (f *File) active() string {
	if f.ActiveProfile != "" {
		return f.ActiveProfile
	}

	return constants.DefaultProfile
}

type Sources struct {
	// Profile is the profile requested on the command line.
	Profile string
	Getenv  func(string) string
	Flags   Profile
}

// FromEnv reads profile overrides from the environment.
func FromEnv(getenv func(string) string) (Profile, error) {
	p := Profile{
		Endpoint: strings.TrimRight(getenv(constants.EnvEndpoint), "/"),
		Token:    getenv(constants.EnvToken),
		Format:   strings.ToLower(getenv(constants.EnvFormat)),
	}

	if raw := getenv(constants.EnvTimeout); raw != "" {
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return p, types.InvalidValue(constants.EnvTimeout, raw, err)
		}
		p.Timeout = d
	}

	if raw := getenv(constants.EnvRetries); raw != "" {
		i, err := cast.ToIntE(raw)
		if err != nil {
			return p, types.InvalidValue(constants.EnvRetries, raw, err)
		}
		p.Retries = IntPtr(i)
	}

	return p, nil
}

// Resolve layers defaults, the named profile, the environment and the
// command-line overrides, in that order. It returns the chosen profile name.
func (f *File) Resolve(src Sources) (string, Profile, error) {
	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	name := src.Profile
	explicit := name != ""
	if name == "" {
		name = getenv(constants.EnvProfile)
		explicit = name != ""
	}
	if name == "" {
		name = f.active()
	}

	resolved := Defaults()

	stored, ok := f.Profiles[name]
	if !ok && explicit && name != constants.DefaultProfile {
		return name, resolved, errors.New(types.ErrCodeConfig, "profile not found: "+name).
			WithContext("profile", name).
			WithContext("path", f.path)
	}

	env, err := FromEnv(getenv)
	if err != nil {
		return name, resolved, err
	}

	for _, layer := range []Profile{stored, env, src.Flags} {
		if err := merge(&resolved, layer); err != nil {
			return name, resolved, errors.Wrap(err, types.ErrCodeConfig, "failed to merge profile")
		}
	}

	return name, resolved, nil
}
