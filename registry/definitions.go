package registry

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LoadLwm2mDefinitions reads one OMA object-definition XML file per entry
// of modelsPath and returns the resulting ObjectDescriptors, sorted by
// object id. It lets the client extend its built-in catalogue (see
// RegisterBuiltins) with vendor- or deployment-specific objects without a
// code change.
//
// A file that fails to parse into a usable descriptor is skipped rather
// than aborting the whole load, since one malformed vendor object
// shouldn't keep the rest of the catalogue from loading.
func LoadLwm2mDefinitions(modelsPath string) ([]*ObjectDescriptor, error) {
	entries, err := os.ReadDir(modelsPath)
	if err != nil {
		return nil, err
	}
	var defs []*ObjectDescriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(modelsPath, entry.Name()))
		if err != nil {
			return nil, err
		}
		doc := &objectDefinitionXML{}
		if err := xml.Unmarshal(data, doc); err != nil {
			continue
		}
		if desc := objectDescriptorFromXML(doc.Object); desc != nil {
			defs = append(defs, desc)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// objectDefinitionXML mirrors the OMA LWM2M object-definition schema: one
// <LWM2M><Object>...</Object></LWM2M> document per file.
type objectDefinitionXML struct {
	XMLName xml.Name          `xml:"LWM2M"`
	Object  *xmlObjectElement `xml:"Object"`
}

type xmlObjectElement struct {
	Name      string              `xml:"Name"`
	ID        string              `xml:"ObjectID"`
	Multi     string              `xml:"MultipleInstances"`
	Mandatory string              `xml:"Mandatory"`
	Resources []*xmlResourceEntry `xml:"Resources>Item"`
}

type xmlResourceEntry struct {
	ID         string `xml:"ID,attr"`
	Name       string `xml:"Name"`
	Operations string `xml:"Operations"`
	Multi      string `xml:"MultipleInstances"`
	Mandatory  string `xml:"Mandatory"`
	Type       string `xml:"Type"`
}

func objectDescriptorFromXML(x *xmlObjectElement) *ObjectDescriptor {
	if x == nil {
		return nil
	}
	id, err := strconv.Atoi(x.ID)
	if err != nil {
		return nil
	}
	mult, ok := multiplicityFromXML(x.Multi)
	if !ok {
		return nil
	}
	mandatory, ok := mandatoryFromXML(x.Mandatory)
	if !ok {
		return nil
	}
	desc := &ObjectDescriptor{
		ID:           uint16(id),
		Name:         x.Name,
		Multiplicity: mult,
		Mandatory:    mandatory,
	}
	for _, r := range x.Resources {
		if rd := resourceDescriptorFromXML(r); rd != nil {
			desc.Resources = append(desc.Resources, rd)
		}
	}
	return desc
}

func resourceDescriptorFromXML(x *xmlResourceEntry) *ResourceDescriptor {
	if x == nil {
		return nil
	}
	id, err := strconv.Atoi(x.ID)
	if err != nil {
		return nil
	}
	mult, ok := multiplicityFromXML(x.Multi)
	if !ok {
		return nil
	}
	mandatory, ok := mandatoryFromXML(x.Mandatory)
	if !ok {
		return nil
	}
	var cap Capability
	if strings.Contains(x.Operations, "R") {
		cap |= CapRead
	}
	if strings.Contains(x.Operations, "W") {
		cap |= CapWrite
	}
	if strings.Contains(x.Operations, "E") {
		cap |= CapExecute
	}
	return &ResourceDescriptor{
		ID:           uint16(id),
		Name:         x.Name,
		Type:         resourceTypeFromXML(x.Type),
		Multiplicity: mult,
		Capabilities: cap,
		Mandatory:    mandatory,
	}
}

func multiplicityFromXML(s string) (Multiplicity, bool) {
	switch s {
	case "Multiple":
		return Unbounded, true
	case "Single":
		return Single, true
	default:
		return Multiplicity{}, false
	}
}

func mandatoryFromXML(s string) (bool, bool) {
	switch s {
	case "Mandatory":
		return true, true
	case "Optional":
		return false, true
	default:
		return false, false
	}
}

func resourceTypeFromXML(s string) ResourceType {
	switch s {
	case "String":
		return TypeString
	case "Integer":
		return TypeInt
	case "Float":
		return TypeFloat
	case "Boolean":
		return TypeBool
	case "Opaque":
		return TypeOpaque
	case "Time":
		return TypeTime
	default:
		return TypeUnknown
	}
}
