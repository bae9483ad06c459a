package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
)

// Schema describes a device node and the features we expect to find on
// it, including the values a selftest drives them through.
type Schema struct {
	Device   *DeviceSchema    `hcl:"device,block"`
	Features []*FeatureSchema `hcl:"feature,block"`
}

type DeviceSchema struct {
	Path string `hcl:"path,optional"`
}

type FeatureSchema struct {
	Name            string `hcl:"name,label"`
	UUID            string `hcl:"uuid,attr"`
	GetSize         int    `hcl:"get_size,attr"`
	SetSize         int    `hcl:"set_size,attr"`
	Effects         uint16 `hcl:"effects,optional"`
	Initial         uint32 `hcl:"initial,attr"`
	Update          uint32 `hcl:"update,attr"`
	SaveAcrossReset bool   `hcl:"save_across_reset,optional"`
}

func ReadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	s := new(Schema)
	return s, s.Decode(data)
}

func (s *Schema) Decode(data []byte) error {
	file, diag := hclsyntax.ParseConfig(data, "", hcl.Pos{Line: 1, Column: 1})
	if diag.HasErrors() {
		return diag.Errs()[0]
	}

	diag = gohcl.DecodeBody(file.Body, nil, s)
	if diag.HasErrors() {
		return diag.Errs()[0]
	}

	return s.Validate()
}

func (s *Schema) Encode() ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(s, f.Body())
	return f.Bytes(), nil
}

func (s *Schema) Validate() error {
	names := make(map[string]bool)
	uuids := make(map[uuid.UUID]bool)
	for _, f := range s.Features {
		if names[f.Name] {
			return fmt.Errorf("duplicate feature %q", f.Name)
		}
		names[f.Name] = true

		id, err := f.UUIDBytes()
		if err != nil {
			return fmt.Errorf("feature %q: %w", f.Name, err)
		}
		if uuids[id] {
			return fmt.Errorf("duplicate feature uuid %s", id)
		}
		uuids[id] = true

		if f.GetSize < 1 || f.GetSize > 0xffff {
			return fmt.Errorf("feature %q: get_size %d out of range", f.Name, f.GetSize)
		}
		if f.SetSize < 1 || f.SetSize > 0xffff {
			return fmt.Errorf("feature %q: set_size %d out of range", f.Name, f.SetSize)
		}
	}
	return nil
}

func (s *Schema) FeatureByName(name string) *FeatureSchema {
	for _, f := range s.Features {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (fs *FeatureSchema) UUIDBytes() (uuid.UUID, error) {
	return uuid.Parse(fs.UUID)
}

// Matches checks a device reported entry against this profile. Only the
// fields the profile pins down are compared, and a zero effects value
// means any effects are fine.
func (fs *FeatureSchema) Matches(e *cxl.FeatureEntry) error {
	if e == nil {
		return errors.New("no feature entry")
	}
	id, err := fs.UUIDBytes()
	if err != nil {
		return err
	}
	if e.UUID != id {
		return fmt.Errorf("feature %q: uuid %s, expected %s", fs.Name, e.UUID, id)
	}
	if int(e.GetSize) != fs.GetSize {
		return fmt.Errorf("feature %q: get size %d, expected %d", fs.Name, e.GetSize, fs.GetSize)
	}
	if int(e.SetSize) != fs.SetSize {
		return fmt.Errorf("feature %q: set size %d, expected %d", fs.Name, e.SetSize, fs.SetSize)
	}
	if fs.Effects != 0 && e.Effects != fs.Effects {
		return fmt.Errorf("feature %q: effects 0x%04x, expected 0x%04x", fs.Name, e.Effects, fs.Effects)
	}
	return nil
}

// DefaultSchema is the profile of the kernel's test feature device.
func DefaultSchema() *Schema {
	return &Schema{
		Device: &DeviceSchema{
			Path: "/dev/fwctl/fwctl0",
		},
		Features: []*FeatureSchema{
			{
				Name:    "test",
				UUID:    cxl.TestFeatureUUID.String(),
				GetSize: cxl.FeatureValueSize,
				SetSize: cxl.FeatureValueSize,
				Effects: cxl.TestFeatureEffects,
				Initial: cxl.TestFeatureInitialValue,
				Update:  cxl.TestFeatureUpdateValue,
			},
		},
	}
}
