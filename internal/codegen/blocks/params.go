package blocks

import (
	"strings"

	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
)

// Widget types understood by the block GUI.
const (
	WidgetStringEntry  = "StringEntry"
	WidgetSpinBox      = "SpinBox"
	WidgetFileEntry    = "FileEntry"
	WidgetComboBox     = "ComboBox"
	WidgetDTypeChooser = "DTypeChooser"
)

// DefaultDType is the default of a data type chooser.
const DefaultDType = `"complex_float32"`

func dtypeKwargs() map[string]any {
	return map[string]any{"float": 1, "cfloat": 1, "int": 1, "cint": 1, "uint": 1, "cuint": 1}
}

// IsDTypeParam reports whether a descriptor parameter only selects an item
// size: an enum keyed like "type" whose options carry nothing but size:
// annotations.
func IsDTypeParam(pd scanner.ParamDesc) bool {
	if pd.Type != "enum" || !strings.Contains(strings.ToLower(pd.Key), "type") || len(pd.Options) == 0 {
		return false
	}
	for _, o := range pd.Options {
		if len(o.Opts) == 0 {
			return false
		}
		for _, a := range o.Opts {
			if !strings.HasPrefix(a, "size:") {
				return false
			}
		}
	}
	return true
}

// previewFor maps a GRC hide value to a preview mode.
func previewFor(hide string) string {
	switch strings.TrimSpace(hide) {
	case "":
		return ""
	case "none":
		return PreviewEnable
	case "part", "all":
		return PreviewDisable
	default:
		return PreviewValid
	}
}

// ParamFromDescriptor builds a unified parameter from a descriptor entry.
func ParamFromDescriptor(pd scanner.ParamDesc) Param {
	p := Param{
		Key:     pd.Key,
		Name:    pd.Name,
		Preview: previewFor(pd.Hide),
	}
	if pd.HasValue {
		p.SetDefault(ParseLiteral(pd.Value))
	}

	if IsDTypeParam(pd) {
		p.WidgetType = WidgetDTypeChooser
		p.WidgetKwargs = dtypeKwargs()
		p.SetDefault(DefaultDType)
		return p
	}

	switch pd.Type {
	case "string":
		p.WidgetType = WidgetStringEntry
		if pd.HasValue {
			p.SetDefault(quote(pd.Value))
		}
	case "int":
		if p.HasDefault && IsIntLiteral(p.Default) {
			p.WidgetType = WidgetSpinBox
		}
	case "file_open", "file_save":
		p.WidgetType = WidgetFileEntry
		p.WidgetKwargs = map[string]any{"mode": strings.TrimPrefix(pd.Type, "file_")}
	}

	if len(pd.Options) > 0 {
		for _, o := range pd.Options {
			p.Options = append(p.Options, Option{Name: o.Name, Value: ParseLiteral(o.Key)})
		}
		p.WidgetType = WidgetComboBox
		p.WidgetKwargs = map[string]any{"editable": pd.Type != "enum"}
	}
	return p
}

// applyEnum replaces the options of p with the values of enum.
func applyEnum(p *Param, en scanner.Enum) {
	p.Options = nil
	for _, v := range en.Values {
		p.Options = append(p.Options, Option{Name: v, Value: quote(v)})
	}
	p.WidgetType = WidgetComboBox
	p.WidgetKwargs = map[string]any{"editable": false}
	p.ClearDefault()
}
