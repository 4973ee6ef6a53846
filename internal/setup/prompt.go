package setup

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/translive/translive/pkg/audio"
)

// Session holds the parameters resolved by setup. Fields that are already
// populated are kept as-is; Prompt only asks for the blanks.
type Session struct {
	// Device is the capture device name. Empty means the system default.
	Device string
	// SourceLanguage and TargetLanguage are ISO 639-1 codes.
	SourceLanguage string
	TargetLanguage string
}

// Complete reports whether every field a session needs is present.
func (s Session) Complete() bool {
	return s.SourceLanguage != "" && s.TargetLanguage != ""
}

// Validate resolves both language fields through the catalog and rewrites
// them to canonical ISO codes. An identical source and target pair is
// allowed; the pipeline simply skips translation for it.
func (s *Session) Validate() error {
	if s.SourceLanguage == "" || s.TargetLanguage == "" {
		return errors.New("setup: source and target language are required")
	}
	src, err := MatchLanguage(s.SourceLanguage)
	if err != nil {
		return err
	}
	tgt, err := MatchLanguage(s.TargetLanguage)
	if err != nil {
		return err
	}
	s.SourceLanguage = src.Code
	s.TargetLanguage = tgt.Code
	return nil
}

// DeviceLister enumerates capture devices. Satisfied by the malgo package;
// tests substitute a stub.
type DeviceLister func() ([]audio.Device, error)

// Prompt fills the missing fields of s interactively. Fields already set are
// not asked again. A nil lister skips the device question entirely.
func Prompt(s *Session, listDevices DeviceLister) error {
	var groups []*huh.Group

	if s.Device == "" && listDevices != nil {
		devices, err := listDevices()
		if err != nil {
			return fmt.Errorf("setup: list capture devices: %w", err)
		}
		if len(devices) > 0 {
			groups = append(groups, huh.NewGroup(
				huh.NewSelect[string]().
					Title("Capture device").
					Options(deviceOptions(devices)...).
					Value(&s.Device),
			))
		}
	}

	if s.SourceLanguage == "" {
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Spoken language").
				Options(languageOptions()...).
				Value(&s.SourceLanguage),
		))
	}
	if s.TargetLanguage == "" {
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Translate into").
				Options(languageOptions()...).
				Value(&s.TargetLanguage),
		))
	}

	if len(groups) > 0 {
		if err := huh.NewForm(groups...).Run(); err != nil {
			return fmt.Errorf("setup: prompt: %w", err)
		}
	}
	return s.Validate()
}

// deviceOptions lists devices with the default device first and selected.
func deviceOptions(devices []audio.Device) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(devices))
	for _, d := range devices {
		label := d.Name
		if d.Default {
			label += " (default)"
		}
		opts = append(opts, huh.NewOption(label, d.Name).Selected(d.Default))
	}
	return opts
}

func languageOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(Languages))
	for _, l := range Languages {
		opts = append(opts, huh.NewOption(l.String(), l.Code))
	}
	return opts
}
