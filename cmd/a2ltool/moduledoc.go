package main

import (
	"encoding/json"
	"os"

	"github.com/a2l-tools/a2ltool/internal/a2l"
)

// moduleDoc is the JSON interchange shape this CLI reads and writes in
// place of a real A2L lexer/printer, which spec.md explicitly keeps out
// of scope (see a2l.MemModule's own doc comment: "a future lexer/
// printer ... would load into and serialize out of one of these"). It
// exists only to drive the engine end to end from the command line.
type moduleDoc struct {
	Measurements           map[string]a2l.Measurement           `json:"measurements,omitempty"`
	Characteristics        map[string]a2l.Characteristic         `json:"characteristics,omitempty"`
	AxisPts                map[string]a2l.AxisPts                `json:"axis_pts,omitempty"`
	Blobs                  map[string]a2l.Blob                   `json:"blobs,omitempty"`
	Instances              map[string]a2l.Instance               `json:"instances,omitempty"`
	TypedefStructures      map[string]a2l.TypedefStructure        `json:"typedef_structures,omitempty"`
	TypedefMeasurements    map[string]a2l.TypedefMeasurement       `json:"typedef_measurements,omitempty"`
	TypedefCharacteristics map[string]a2l.TypedefCharacteristic    `json:"typedef_characteristics,omitempty"`
	CompuMethods           map[string]a2l.CompuMethod             `json:"compu_methods,omitempty"`
	CompuTabs              map[string]a2l.CompuTab                `json:"compu_tabs,omitempty"`
	RecordLayouts          map[string]a2l.RecordLayout           `json:"record_layouts,omitempty"`
	Groups                 map[string]a2l.Group                   `json:"groups,omitempty"`
}

// loadModule reads a moduleDoc from path and populates a fresh MemModule
// from it. A missing path yields an empty module, the "create from
// scratch" starting point.
func loadModule(path string) (*a2l.MemModule, error) {
	mod := a2l.NewMemModule()
	if path == "" {
		return mod, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return mod, nil
	}
	if err != nil {
		return nil, err
	}

	var doc moduleDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	for name, e := range doc.Measurements {
		mod.Insert(a2l.KindMeasurement, name, e)
	}
	for name, e := range doc.Characteristics {
		mod.Insert(a2l.KindCharacteristic, name, e)
	}
	for name, e := range doc.AxisPts {
		mod.Insert(a2l.KindAxisPts, name, e)
	}
	for name, e := range doc.Blobs {
		mod.Insert(a2l.KindBlob, name, e)
	}
	for name, e := range doc.Instances {
		mod.Insert(a2l.KindInstance, name, e)
	}
	for name, e := range doc.TypedefStructures {
		mod.Insert(a2l.KindTypedefStructure, name, e)
	}
	for name, e := range doc.TypedefMeasurements {
		mod.Insert(a2l.KindTypedefMeasurement, name, e)
	}
	for name, e := range doc.TypedefCharacteristics {
		mod.Insert(a2l.KindTypedefCharacteristic, name, e)
	}
	for name, e := range doc.CompuMethods {
		mod.Insert(a2l.KindCompuMethod, name, e)
	}
	for name, e := range doc.CompuTabs {
		mod.Insert(a2l.KindCompuTab, name, e)
	}
	for name, e := range doc.RecordLayouts {
		mod.Insert(a2l.KindRecordLayout, name, e)
	}
	for name, e := range doc.Groups {
		mod.Insert(a2l.KindGroup, name, e)
	}

	return mod, nil
}

// saveModule serializes mod's full entity set back out to path as JSON.
func saveModule(mod *a2l.MemModule, path string) error {
	doc := moduleDoc{
		Measurements:           map[string]a2l.Measurement{},
		Characteristics:        map[string]a2l.Characteristic{},
		AxisPts:                map[string]a2l.AxisPts{},
		Blobs:                  map[string]a2l.Blob{},
		Instances:              map[string]a2l.Instance{},
		TypedefStructures:      map[string]a2l.TypedefStructure{},
		TypedefMeasurements:    map[string]a2l.TypedefMeasurement{},
		TypedefCharacteristics: map[string]a2l.TypedefCharacteristic{},
		CompuMethods:           map[string]a2l.CompuMethod{},
		CompuTabs:              map[string]a2l.CompuTab{},
		RecordLayouts:          map[string]a2l.RecordLayout{},
		Groups:                 map[string]a2l.Group{},
	}

	for _, name := range mod.Names(a2l.KindMeasurement) {
		v, _ := mod.Lookup(a2l.KindMeasurement, name)
		doc.Measurements[name] = v.(a2l.Measurement)
	}
	for _, name := range mod.Names(a2l.KindCharacteristic) {
		v, _ := mod.Lookup(a2l.KindCharacteristic, name)
		doc.Characteristics[name] = v.(a2l.Characteristic)
	}
	for _, name := range mod.Names(a2l.KindAxisPts) {
		v, _ := mod.Lookup(a2l.KindAxisPts, name)
		doc.AxisPts[name] = v.(a2l.AxisPts)
	}
	for _, name := range mod.Names(a2l.KindBlob) {
		v, _ := mod.Lookup(a2l.KindBlob, name)
		doc.Blobs[name] = v.(a2l.Blob)
	}
	for _, name := range mod.Names(a2l.KindInstance) {
		v, _ := mod.Lookup(a2l.KindInstance, name)
		doc.Instances[name] = v.(a2l.Instance)
	}
	for _, name := range mod.Names(a2l.KindTypedefStructure) {
		v, _ := mod.Lookup(a2l.KindTypedefStructure, name)
		doc.TypedefStructures[name] = v.(a2l.TypedefStructure)
	}
	for _, name := range mod.Names(a2l.KindTypedefMeasurement) {
		v, _ := mod.Lookup(a2l.KindTypedefMeasurement, name)
		doc.TypedefMeasurements[name] = v.(a2l.TypedefMeasurement)
	}
	for _, name := range mod.Names(a2l.KindTypedefCharacteristic) {
		v, _ := mod.Lookup(a2l.KindTypedefCharacteristic, name)
		doc.TypedefCharacteristics[name] = v.(a2l.TypedefCharacteristic)
	}
	for _, name := range mod.Names(a2l.KindCompuMethod) {
		v, _ := mod.Lookup(a2l.KindCompuMethod, name)
		doc.CompuMethods[name] = v.(a2l.CompuMethod)
	}
	for _, name := range mod.Names(a2l.KindCompuTab) {
		v, _ := mod.Lookup(a2l.KindCompuTab, name)
		doc.CompuTabs[name] = v.(a2l.CompuTab)
	}
	for _, name := range mod.Names(a2l.KindRecordLayout) {
		v, _ := mod.Lookup(a2l.KindRecordLayout, name)
		doc.RecordLayouts[name] = v.(a2l.RecordLayout)
	}
	for _, name := range mod.Names(a2l.KindGroup) {
		v, _ := mod.Lookup(a2l.KindGroup, name)
		doc.Groups[name] = v.(a2l.Group)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
