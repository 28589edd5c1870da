package scanner

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type xmlBlock struct {
	XMLName   xml.Name   `xml:"block"`
	Name      string     `xml:"name"`
	Key       string     `xml:"key"`
	Category  string     `xml:"category"`
	Make      string     `xml:"make"`
	Callbacks []string   `xml:"callback"`
	Params    []xmlParam `xml:"param"`
	Sinks     []xmlPort  `xml:"sink"`
	Sources   []xmlPort  `xml:"source"`
}

type xmlParam struct {
	Name    string      `xml:"name"`
	Key     string      `xml:"key"`
	Value   *string     `xml:"value"`
	Type    string      `xml:"type"`
	Hide    string      `xml:"hide"`
	Options []xmlOption `xml:"option"`
}

type xmlOption struct {
	Name string   `xml:"name"`
	Key  string   `xml:"key"`
	Opts []string `xml:"opt"`
}

type xmlPort struct {
	Name     string `xml:"name"`
	Type     string `xml:"type"`
	NPorts   string `xml:"nports"`
	Optional string `xml:"optional"`
}

type xmlCat struct {
	Name   string   `xml:"name"`
	Blocks []string `xml:"block"`
	Cats   []xmlCat `xml:"cat"`
}

// xmlRoot returns the local name of the document element.
func xmlRoot(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("empty xml document")
			}
			return "", fmt.Errorf("xml: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func parseXMLBlock(data []byte) (*Record, error) {
	var b xmlBlock
	if err := xml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("xml block: %w", err)
	}
	rec := &Record{
		Key:  strings.TrimSpace(b.Key),
		Name: strings.TrimSpace(b.Name),
		Make: strings.TrimSpace(b.Make),
	}
	if c := strings.TrimSpace(b.Category); c != "" {
		rec.Categories = append(rec.Categories, c)
	}
	for _, cb := range b.Callbacks {
		if cb = strings.TrimSpace(cb); cb != "" {
			rec.Callbacks = append(rec.Callbacks, cb)
		}
	}
	for _, p := range b.Params {
		pd := ParamDesc{
			Key:  strings.TrimSpace(p.Key),
			Name: strings.TrimSpace(p.Name),
			Type: strings.TrimSpace(p.Type),
			Hide: strings.TrimSpace(p.Hide),
		}
		if p.Value != nil {
			pd.Value = strings.TrimSpace(*p.Value)
			pd.HasValue = true
		}
		for _, o := range p.Options {
			opt := Option{Name: strings.TrimSpace(o.Name), Key: strings.TrimSpace(o.Key)}
			for _, a := range o.Opts {
				opt.Opts = append(opt.Opts, strings.TrimSpace(a))
			}
			pd.Options = append(pd.Options, opt)
		}
		rec.Params = append(rec.Params, pd)
	}
	rec.Sinks = xmlPorts(b.Sinks)
	rec.Sources = xmlPorts(b.Sources)
	return rec, nil
}

func xmlPorts(in []xmlPort) []Port {
	var out []Port
	for _, p := range in {
		out = append(out, Port{
			Name:     strings.TrimSpace(p.Name),
			Type:     strings.TrimSpace(p.Type),
			NPorts:   strings.TrimSpace(p.NPorts),
			Optional: isTruthy(p.Optional),
		})
	}
	return out
}

func parseXMLTree(data []byte, add func(block, category string)) error {
	var root xmlCat
	if err := xml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("xml tree: %w", err)
	}
	walkXMLCat(root, nil, add)
	return nil
}

func walkXMLCat(c xmlCat, names []string, add func(block, category string)) {
	if n := strings.TrimSpace(c.Name); n != "" {
		names = append(append([]string{}, names...), n)
	}
	for _, b := range c.Blocks {
		if b = strings.TrimSpace(b); b != "" {
			add(b, strings.Join(names, "/"))
		}
	}
	for _, sub := range c.Cats {
		walkXMLCat(sub, names, add)
	}
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
