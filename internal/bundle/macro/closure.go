// Package macro implements the Macro Engine of spec.md §4.5: detecting
// macro call sites, capturing their arguments as Closures, invoking the
// macro body inside an embedded goja runtime, and substituting the
// returned MacroResult back into the surviving declarations until no call
// sites remain.
package macro

import "encoding/json"

// WireReference is one entry of a Closure's references map on the wire:
// spec.md §6 shapes it as `"<local-ident>": ["<module-uri>", "<export-name>"]`.
type WireReference [2]string

// Closure is spec.md §3/§6's captured-argument value: the source text of a
// macro-call argument expression, plus every free identifier it references
// resolved to a CanonicalName.
type Closure struct {
	Expression string                    `json:"expression"`
	References map[string]WireReference `json:"references"`
}

// MacroResultKind distinguishes the two MacroResult shapes of spec.md §6.
type MacroResultKind string

const (
	ResultSimple         MacroResultKind = "Simple"
	ResultWithDefinitions MacroResultKind = "WithDefinitions"
)

// MacroResult is the engine's decoded reply to one macro invocation: either
// a bare replacement Closure, or a Closure plus artificial definitions the
// macro wants injected into the Declaration Index (spec.md §4.5
// "Substitution").
type MacroResult struct {
	Type        MacroResultKind   `json:"type"`
	Closure     Closure           `json:"closure"`
	Definitions map[string]string `json:"definitions,omitempty"`
}

// DefinitionKey formats the `[uri,name]`-key spec.md §6 uses for the
// Definitions map.
func DefinitionKey(moduleURI, localName string) string {
	b, _ := json.Marshal([2]string{moduleURI, localName})
	return string(b)
}

// ParseDefinitionKey reverses DefinitionKey.
func ParseDefinitionKey(key string) (moduleURI, localName string, err error) {
	var pair [2]string
	if err := json.Unmarshal([]byte(key), &pair); err != nil {
		return "", "", err
	}
	return pair[0], pair[1], nil
}

// MarshalClosure encodes c in the bundler→engine wire format of spec.md §6.
func MarshalClosure(c Closure) ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalMacroResult decodes the engine's reply per spec.md §6.
func UnmarshalMacroResult(data []byte) (*MacroResult, error) {
	var raw struct {
		Type    MacroResultKind `json:"type"`
		Closure Closure         `json:"closure"`
		Definitions map[string]string `json:"definitions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &MacroResult{Type: raw.Type, Closure: raw.Closure, Definitions: raw.Definitions}, nil
}
