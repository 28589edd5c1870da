package blocks

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/pothosware/grpothosgen/internal/codegen/common"
	"github.com/pothosware/grpothosgen/internal/codegen/doxygen"
	"github.com/pothosware/grpothosgen/internal/codegen/meta"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
	"github.com/pothosware/grpothosgen/internal/log"
)

// Internal operations used for port setup.
const (
	SetNumInputs   = "__setNumInputs"
	SetNumOutputs  = "__setNumOutputs"
	SetInputAlias  = "setInputAlias"
	SetOutputAlias = "setOutputAlias"
)

// FrameworkMethods are scheduler hooks every block overrides; never bound.
var FrameworkMethods = []string{
	"general_work", "work", "forecast",
	"fixed_rate_noutput_to_ninput", "fixed_rate_ninput_to_noutput",
}

// MethodFilter decides whether a class method may be bound.
type MethodFilter interface {
	MethodAllowed(cls scanner.Class, method string) bool
}

// Callable is a factory function or bound method.
type Callable struct {
	Name   string
	Path   string // Fully qualified name
	Params []scanner.Param
	Doc    string
	Return string
}

// Unifier merges a class, its factory and its descriptor into one block
// description.
type Unifier struct {
	Enums       *meta.Enums
	Methods     MethodFilter
	Ranker      common.Ranker
	Report      log.Reporter
	StrictTypes bool // Fail on a key bound to two different C++ types
}

// FindFactory returns the static make method of cls, or a free make function
// declared in the same header.
func FindFactory(cls scanner.Class, hdr *scanner.Header) (Callable, bool) {
	for _, m := range cls.Methods {
		if m.Static && strings.Contains(m.Name, "make") {
			return Callable{
				Name:   m.Name,
				Path:   cls.QualifiedName() + "::" + m.Name,
				Params: m.Params,
				Doc:    m.Doc,
			}, true
		}
	}
	if hdr == nil {
		return Callable{}, false
	}
	var found *scanner.Function
	for i, f := range hdr.Functions {
		if !strings.Contains(f.Name, "make") {
			continue
		}
		if found == nil || (f.Namespace == cls.Namespace && found.Namespace != cls.Namespace) {
			found = &hdr.Functions[i]
		}
	}
	if found == nil {
		return Callable{}, false
	}
	path := found.Name
	if found.Namespace != "" {
		path = found.Namespace + "::" + found.Name
	}
	return Callable{Name: found.Name, Path: path, Params: found.Params, Doc: found.Doc}, true
}

// BindableMethods lists the methods of cls that can be registered as
// callables: not static, not special, not framework hooks, allowed by the
// method filter, within MaxArgs, free of char pointers and not overloaded.
func (u *Unifier) BindableMethods(cls scanner.Class) []Callable {
	counts := map[string]int{}
	for _, m := range cls.Methods {
		counts[m.Name]++
	}
	warned := map[string]bool{}

	var out []Callable
	for _, m := range cls.Methods {
		if m.Static || m.Constructor || m.Destructor || slices.Contains(FrameworkMethods, m.Name) {
			continue
		}
		if u.Methods != nil && !u.Methods.MethodAllowed(cls, m.Name) {
			continue
		}
		if counts[m.Name] > 1 {
			if !warned[m.Name] {
				u.Report.Warning("Overloaded method %s::%s ignored", cls.Name, m.Name)
				warned[m.Name] = true
			}
			continue
		}
		if len(m.Params) > MaxArgs {
			u.Report.Warning("Too many parameters %s::%s ignored", cls.Name, m.Name)
			continue
		}
		if hasNarrowString(m.Params) {
			u.Report.Warning("Method %s::%s takes a char pointer, ignored", cls.Name, m.Name)
			continue
		}
		out = append(out, Callable{
			Name:   m.Name,
			Path:   cls.QualifiedName() + "::" + m.Name,
			Params: m.Params,
			Doc:    m.Doc,
			Return: m.Return,
		})
	}
	return out
}

func hasNarrowString(ps []scanner.Param) bool {
	for _, p := range ps {
		if common.IsNarrowString(p.Type) {
			return true
		}
	}
	return false
}

// binding tracks the key and type assigned to every argument.
type binding struct {
	keys    map[string][]string // callable name -> key per argument
	types   map[string]string   // key -> first declared C++ type
	order   []string            // keys in first-seen order
	seen    map[string]bool
	cls     string
	strict  bool
	report  log.Reporter
	problem error
}

func (b *binding) bind(fn Callable, keys []string) {
	b.keys[fn.Name] = keys
	for i, k := range keys {
		t := fn.Params[i].Type
		if !b.seen[k] {
			b.seen[k] = true
			b.order = append(b.order, k)
			b.types[k] = t
			continue
		}
		if common.NormalizeCType(b.types[k]) == common.NormalizeCType(t) {
			continue
		}
		if b.strict {
			if b.problem == nil {
				b.problem = fmt.Errorf("%w: %s key %q is %s and %s", ErrTypeConflict, b.cls, k, b.types[k], t)
			}
			continue
		}
		b.report.Warning("%s: parameter %q bound as %s and %s, keeping %s", b.cls, k, b.types[k], t, b.types[k])
	}
}

// Unify builds the factory and block description of cls from its factory,
// candidate methods and descriptor record. treeCategories are additional
// categories from block tree files.
func (u *Unifier) Unify(cls scanner.Class, factory Callable, methods []Callable, rec *scanner.Record, treeCategories []string) (*Factory, *Desc, error) {
	callbacks := strings.Join(rec.Callbacks, "\n")
	descKeys := rec.ParamKeys()

	// methods referenced by the descriptor become calls
	var calls []Callable
	for _, m := range methods {
		if len(m.Params) == 0 {
			continue
		}
		if !common.ContainsIdent(rec.Make, m.Name) && !common.ContainsIdent(callbacks, m.Name) {
			u.Report.Notice("method %s::%s not used in GRC %s", cls.Name, m.Name, rec.Key)
			continue
		}
		calls = append(calls, m)
	}

	b := &binding{
		keys:   map[string][]string{},
		types:  map[string]string{},
		seen:   map[string]bool{},
		cls:    cls.QualifiedName(),
		strict: u.StrictTypes,
		report: u.Report,
	}

	makeKeys := MakeKeys(rec.Make, len(factory.Params))
	fkeys := make([]string, len(factory.Params))
	for i, p := range factory.Params {
		fkeys[i] = u.resolve(makeKeys[i], p.Name, descKeys)
	}
	b.bind(factory, fkeys)

	for _, c := range calls {
		cbKeys, ok := CallbackKeys(rec.Callbacks, c.Name, len(c.Params))
		keys := make([]string, len(c.Params))
		for i, p := range c.Params {
			hint := ""
			if ok {
				hint = cbKeys[i]
			}
			keys[i] = u.resolve(hint, p.Name, descKeys)
		}
		b.bind(c, keys)
	}
	if b.problem != nil {
		return nil, nil, b.problem
	}
	if len(fkeys) > MaxArgs {
		return nil, nil, fmt.Errorf("%w: %s takes %d", ErrTooManyArgs, cls.QualifiedName(), len(fkeys))
	}

	referenced := map[string]bool{}
	for _, k := range b.order {
		referenced[k] = true
	}

	// port counts and aliases
	var portCalls []Call
	portCalls = append(portCalls, aliasCalls(SetInputAlias, rec.Sinks)...)
	portCalls = append(portCalls, aliasCalls(SetOutputAlias, rec.Sources)...)
	for _, pc := range []struct {
		name  string
		ports []scanner.Port
	}{{SetNumInputs, rec.Sinks}, {SetNumOutputs, rec.Sources}} {
		for _, key := range nportsKeys(pc.ports, rec) {
			referenced[key] = true
			portCalls = append(portCalls, Call{Name: pc.name, Args: []string{key}, Type: Initializer})
		}
	}

	// parameters: declared order first, then undeclared keys sorted
	var params []Param
	for _, pd := range rec.Params {
		if referenced[pd.Key] {
			params = append(params, ParamFromDescriptor(pd))
		}
	}
	var extra []string
	for k := range referenced {
		if _, ok := rec.Param(k); !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		params = append(params, Param{Key: k})
	}

	if u.Enums != nil {
		for i := range params {
			p := &params[i]
			t, ok := b.types[p.Key]
			if !ok || p.WidgetType == WidgetDTypeChooser {
				continue
			}
			if en, ok := u.Enums.Lookup(t); ok {
				applyEnum(p, en)
			}
		}
	}

	u.attachParamDocs(cls, factory, fkeys, params)

	f := &Factory{
		Namespace:    cls.Namespace,
		ClassName:    cls.Name,
		Name:         cls.Name,
		Path:         EntityPath(cls),
		FunctionPath: factory.Path,
	}
	for i, p := range factory.Params {
		u.exportArg(f, p, params, fkeys[i])
	}
	for _, m := range methods {
		f.Methods = append(f.Methods, m.Name)
		if len(m.Params) == 0 && m.Return != "" && m.Return != "void" && m.Name != "start" && m.Name != "stop" {
			f.Probes = append(f.Probes, m.Name)
		}
	}

	desc := &Desc{
		Path:       f.Path,
		Keywords:   []string{cls.Name, cls.Namespace, rec.Key},
		Name:       rec.Name,
		Categories: u.categories(cls, rec, treeCategories),
		Params:     params,
		Calls:      []Call{},
		Args:       fkeys,
		Docs:       doxygen.Transform(cls.Doc, u.Report),
	}
	if desc.Name == "" {
		desc.Name = cls.Name
	}
	if desc.Params == nil {
		desc.Params = []Param{}
	}
	if desc.Docs == nil {
		desc.Docs = []string{}
	}
	for _, c := range calls {
		kind := Initializer
		if common.ContainsIdent(callbacks, c.Name) {
			kind = Setter
		}
		desc.Calls = append(desc.Calls, Call{Name: c.Name, Args: b.keys[c.Name], Type: kind})
	}
	desc.Calls = append(desc.Calls, portCalls...)
	return f, desc, nil
}

// resolve picks the key for an argument: the descriptor hint, else the
// closest descriptor key, else the argument name.
func (u *Unifier) resolve(hint, name string, descKeys []string) string {
	if hint != "" {
		return hint
	}
	if k, ok := common.Closest(u.ranker(), name, descKeys); ok {
		return k
	}
	return name
}

func (u *Unifier) ranker() common.Ranker {
	if u.Ranker == nil {
		return common.NewRanker()
	}
	return u.Ranker
}

// exportArg adds one factory argument to the generated signature.
func (u *Unifier) exportArg(f *Factory, p scanner.Param, params []Param, key string) {
	dtype := false
	for _, pp := range params {
		if pp.Key == key && pp.WidgetType == WidgetDTypeChooser {
			dtype = true
		}
	}
	switch {
	case dtype:
		f.ExportedArgs = append(f.ExportedArgs, "const Pothos::DType &"+p.Name)
		f.InternalArgs = append(f.InternalArgs, p.Name+".size()")
		f.ExportedTypes = append(f.ExportedTypes, "Pothos::DType")
	case common.IsNarrowString(p.Type):
		f.ExportedArgs = append(f.ExportedArgs, "const std::string &"+p.Name)
		f.InternalArgs = append(f.InternalArgs, p.Name+".c_str()")
		f.ExportedTypes = append(f.ExportedTypes, "std::string")
	default:
		sep := " "
		if strings.HasSuffix(p.Type, "&") || strings.HasSuffix(p.Type, "*") {
			sep = ""
		}
		f.ExportedArgs = append(f.ExportedArgs, p.Type+sep+p.Name)
		f.InternalArgs = append(f.InternalArgs, p.Name)
		f.ExportedTypes = append(f.ExportedTypes, p.Type)
	}
}

// attachParamDocs copies \param text from the class and factory comments
// onto the matching parameters.
func (u *Unifier) attachParamDocs(cls scanner.Class, factory Callable, fkeys []string, params []Param) {
	if len(params) == 0 {
		return
	}
	keys := make([]string, len(params))
	for i, p := range params {
		keys[i] = p.Key
	}
	for _, pd := range doxygen.ParamDocs(cls.Doc + "\n" + factory.Doc) {
		key := ""
		for i, fp := range factory.Params {
			if fp.Name == pd.Name {
				key = fkeys[i]
			}
		}
		if key == "" {
			ms := u.ranker().Rank(pd.Name, keys)
			if len(ms) == 0 {
				continue
			}
			if common.Tied(ms) {
				u.Report.Warning("%s: doc for param %q matches %q and %q, using %q",
					cls.Name, pd.Name, ms[0].Candidate, ms[1].Candidate, ms[0].Candidate)
			}
			key = ms[0].Candidate
		}
		for i := range params {
			if params[i].Key == key && pd.Text != "" && !slices.Contains(params[i].Desc, pd.Text) {
				params[i].Desc = append(params[i].Desc, pd.Text)
			}
		}
	}
}

func (u *Unifier) categories(cls scanner.Class, rec *scanner.Record, tree []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, c := range append(append([]string{}, rec.Categories...), tree...) {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.HasPrefix(c, "/") {
			c = "/" + c
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		u.Report.Warning("No block categories found: %s", cls.Name)
	}
	return out
}

// nportsKeys returns the descriptor params referenced as port counts.
func nportsKeys(ports []scanner.Port, rec *scanner.Record) []string {
	var out []string
	for _, p := range ports {
		if p.NPorts == "" {
			continue
		}
		key, ok := MarkerName(p.NPorts)
		if !ok {
			key = strings.TrimSpace(p.NPorts)
		}
		if _, declared := rec.Param(key); declared && !slices.Contains(out, key) {
			out = append(out, key)
		}
	}
	return out
}

// aliasCalls names stream ports that have a distinct, non-default name.
func aliasCalls(op string, ports []scanner.Port) []Call {
	names := map[string]int{}
	for _, p := range ports {
		names[p.Name]++
	}
	var out []Call
	idx := 0
	for _, p := range ports {
		if p.Message() {
			continue
		}
		i := idx
		idx++
		if p.NPorts != "" || names[p.Name] > 1 || !aliasable(p.Name) {
			continue
		}
		out = append(out, Call{Name: op, Args: []string{quote(fmt.Sprint(i)), quote(p.Name)}, Type: Initializer})
	}
	return out
}

func aliasable(name string) bool {
	if name == "" || name == "in" || name == "out" || strings.ContainsAny(name, "$ ") {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return true
		}
	}
	return false
}
