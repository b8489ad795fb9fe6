package devicetype

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"example.com/backstage/services/devicetype/internal/utils"
)

const readerSource = "<reader>"

// Load parses a device-type document from r.
func Load(r io.Reader) (*Configuration, error) {
	return load(r, readerSource)
}

// LoadFile parses the device-type document at path.
func LoadFile(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigParseError{Source: path, Err: err}
	}
	defer f.Close()

	return load(f, path)
}

func load(r io.Reader, source string) (*Configuration, error) {
	var cfg Configuration
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &ConfigParseError{Source: source, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	if err := expectEOF(dec); err != nil {
		return nil, &ConfigParseError{Source: source, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		err.Source = source
		return nil, err
	}

	return &cfg, nil
}

// expectEOF rejects anything but whitespace, comments and processing
// instructions after the root element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) != 0 {
				return fmt.Errorf("unexpected text after root element")
			}
		default:
			return fmt.Errorf("unexpected %T after root element", tok)
		}
	}
}

func normalize(cfg *Configuration) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Description = strings.TrimSpace(cfg.Description)

	if l := cfg.License; l != nil {
		l.Language = strings.TrimSpace(l.Language)
		l.Version = strings.TrimSpace(l.Version)
		l.Text = strings.TrimSpace(l.Text)
	}

	if p := cfg.PushNotificationProvider; p != nil {
		p.Type = strings.TrimSpace(p.Type)
		for i := range p.ConfigProperties {
			p.ConfigProperties[i].Name = strings.TrimSpace(p.ConfigProperties[i].Name)
			p.ConfigProperties[i].Value = strings.TrimSpace(p.ConfigProperties[i].Value)
		}
	}

	for i := range cfg.Features.Feature {
		f := &cfg.Features.Feature[i]
		f.Code = strings.TrimSpace(f.Code)
		f.Name = strings.TrimSpace(f.Name)
		f.Description = strings.TrimSpace(f.Description)
	}
}

func validate(cfg *Configuration) *ConfigParseError {
	if cfg.Name == "" {
		return &ConfigParseError{Field: "DeviceTypeConfiguration@name", Err: ErrMissingField}
	}

	if cfg.PushNotificationProvider == nil {
		return &ConfigParseError{Field: "PushNotificationProvider", Err: ErrMissingField}
	}
	if cfg.PushNotificationProvider.Type == "" {
		return &ConfigParseError{Field: "PushNotificationProvider@type", Err: ErrMissingField}
	}

	if cfg.License == nil {
		return &ConfigParseError{Field: "License", Err: ErrMissingField}
	}
	if cfg.License.Text == "" {
		return &ConfigParseError{Field: "License/Text", Err: ErrMissingField}
	}
	if cfg.License.Version != "" {
		if err := utils.ValidateVersion(cfg.License.Version); err != nil {
			return &ConfigParseError{Field: "License/Version", Err: fmt.Errorf("%w: %v", ErrInvalidVersion, err)}
		}
	}

	seen := make(map[string]struct{}, len(cfg.Features.Feature))
	for i, f := range cfg.Features.Feature {
		if f.Code == "" {
			return &ConfigParseError{Field: fmt.Sprintf("Features/Feature[%d]@code", i), Err: ErrMissingField}
		}
		if _, dup := seen[f.Code]; dup {
			return &ConfigParseError{Field: fmt.Sprintf("Features/Feature[%d]@code", i), Err: fmt.Errorf("%w: %s", ErrDuplicateFeature, f.Code)}
		}
		seen[f.Code] = struct{}{}
	}

	return nil
}
