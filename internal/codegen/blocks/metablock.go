package blocks

import (
	"fmt"
	"strings"

	"github.com/pothosware/grpothosgen/internal/codegen/common"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
)

// Member is one type-specialized block of a meta family.
type Member struct {
	Factory *Factory
	Desc    *Desc
}

// Composer merges the members of a descriptor family into one meta block.
type Composer struct {
	Ranker common.Ranker
}

// typeParam returns the last descriptor parameter whose key mentions "type".
func typeParam(rec *scanner.Record) (scanner.ParamDesc, bool) {
	for i := len(rec.Params) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(rec.Params[i].Key), "type") {
			return rec.Params[i], true
		}
	}
	return scanner.ParamDesc{}, false
}

// tagLabels maps option keys and fcn: annotations to display names,
// keeping the order in which they were declared.
func tagLabels(pd scanner.ParamDesc) (keys []string, labels map[string]string) {
	labels = map[string]string{}
	add := func(k, name string) {
		if k == "" {
			return
		}
		if _, ok := labels[k]; !ok {
			keys = append(keys, k)
		}
		labels[k] = name
	}
	for _, o := range pd.Options {
		add(strings.Trim(o.Key, `"'`), o.Name)
		for _, a := range o.Opts {
			if v, ok := strings.CutPrefix(a, "fcn:"); ok {
				add(v, o.Name)
			}
		}
	}
	return keys, labels
}

// Compose builds the meta factory and description for family from its
// descriptor record and bound members.
func (c *Composer) Compose(family string, rec *scanner.Record, members []Member) (*MetaFactory, *Desc, error) {
	if len(members) == 0 {
		return nil, nil, fmt.Errorf("%s: no members", family)
	}
	tp, ok := typeParam(rec)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoTypeParam, family)
	}

	ranker := c.Ranker
	if ranker == nil {
		ranker = common.NewRanker()
	}
	keys, labels := tagLabels(tp)

	tag := Param{
		Key:          tp.Key,
		Name:         tp.Name,
		Preview:      PreviewDisable,
		WidgetType:   WidgetComboBox,
		WidgetKwargs: map[string]any{"editable": false},
	}
	for _, m := range members {
		label := common.Title(m.Factory.Name)
		if k, ok := common.Closest(ranker, common.LastSegment(m.Factory.Name), keys); ok {
			label = labels[k]
		}
		tag.Options = append(tag.Options, Option{Name: label, Value: quote(m.Factory.Name)})
	}

	richest := members[0]
	for _, m := range members[1:] {
		if len(m.Desc.Args) > len(richest.Desc.Args) {
			richest = m
		}
	}

	desc := richest.Desc.Clone()
	params := []Param{tag}
	for _, p := range desc.Params {
		if p.Key != tag.Key {
			params = append(params, p)
		}
	}
	desc.Params = params
	// every member argument keeps its slot, even one bound to the tag key,
	// so aN lines up with the sub-factory conversions
	args := append([]string{tag.Key}, desc.Args...)
	desc.Args = args

	cut := strings.LastIndex(desc.Path, "_")
	if cut < 0 || cut < strings.LastIndex(desc.Path, "/") {
		return nil, nil, fmt.Errorf("%w: %s", ErrBadMetaPath, desc.Path)
	}
	desc.Path = desc.Path[:cut]
	desc.Name = rec.Name
	if desc.Name == "" {
		desc.Name = family
	}
	desc.Keywords = append(desc.Keywords, family)

	mf := &MetaFactory{
		Name:         family,
		Path:         desc.Path,
		Namespace:    members[0].Factory.Namespace,
		TypeKey:      tag.Key,
		ExportedArgs: []string{"const std::string &" + tag.Key},
	}
	for i := 1; i < len(args); i++ {
		mf.ExportedArgs = append(mf.ExportedArgs, fmt.Sprintf("const Pothos::Object &a%d", i-1))
	}
	for _, m := range members {
		sf := SubFactory{Name: m.Factory.Name}
		for i, t := range m.Factory.ExportedTypes {
			sf.InternalArgs = append(sf.InternalArgs, fmt.Sprintf("a%d.convert<%s>()", i, common.BareCType(t)))
		}
		mf.SubFactories = append(mf.SubFactories, sf)
	}
	return mf, desc, nil
}
