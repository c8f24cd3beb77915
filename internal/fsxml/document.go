package fsxml

import (
	"encoding/xml"
	"strings"
)

// DocumentType is the type attribute mod_xml_curl expects on every answer.
const DocumentType = "freeswitch/xml"

type Document struct {
	XMLName xml.Name  `xml:"document"`
	Type    string    `xml:"type,attr"`
	Section []Section `xml:"section"`
}

type Section struct {
	Name          string             `xml:"name,attr"`
	Description   string             `xml:"description,attr,omitempty"`
	Result        *ResultNode        `xml:"result,omitempty"`
	Domain        *DomainNode        `xml:"domain,omitempty"`
	Context       *ContextNode       `xml:"context,omitempty"`
	Configuration *ConfigurationNode `xml:"configuration,omitempty"`
	Language      *LanguageNode      `xml:"language,omitempty"`
}

type ResultNode struct {
	Status string `xml:"status,attr"`
	Data   string `xml:"data,attr,omitempty"`
}

type DomainNode struct {
	Name string     `xml:"name,attr"`
	User []UserNode `xml:"user"`
}

type UserNode struct {
	ID     string         `xml:"id,attr"`
	Params []ParamNode    `xml:"params>param,omitempty"`
	Vars   []VariableNode `xml:"variables>variable,omitempty"`
}

type ParamNode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type VariableNode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ContextNode holds the dialplan body. Extensions is raw markup: rendered
// rule fragments are concatenated into it so precomputed fragments pass
// through byte for byte.
type ContextNode struct {
	Name       string         `xml:"name,attr"`
	Variables  []VariableNode `xml:"variable"`
	Extensions string         `xml:",innerxml"`
}

// ExtensionNode wraps synthesized condition/action markup for one rule.
type ExtensionNode struct {
	XMLName  xml.Name `xml:"extension"`
	Name     string   `xml:"name,attr"`
	Continue string   `xml:"continue,attr,omitempty"`
	UUID     string   `xml:"uuid,attr,omitempty"`
	Body     string   `xml:",innerxml"`
}

type ConditionNode struct {
	XMLName    xml.Name `xml:"condition"`
	Field      string   `xml:"field,attr,omitempty"`
	Expression string   `xml:"expression,attr,omitempty"`
	Break      string   `xml:"break,attr,omitempty"`
	Actions    []ActionNode
}

// ActionNode renders as <action> or <anti-action> depending on XMLName.
type ActionNode struct {
	XMLName     xml.Name
	Application string `xml:"application,attr"`
	Data        string `xml:"data,attr,omitempty"`
	Inline      string `xml:"inline,attr,omitempty"`
}

type ConfigurationNode struct {
	XMLName      xml.Name          `xml:"configuration"`
	Name         string            `xml:"name,attr"`
	Description  string            `xml:"description,attr,omitempty"`
	NetworkLists *NetworkListsNode `xml:"network-lists,omitempty"`
	Profiles     *ProfilesNode     `xml:"profiles,omitempty"`
	Settings     *SettingsNode     `xml:"settings,omitempty"`
}

type NetworkListsNode struct {
	List []ListNode `xml:"list"`
}

type ListNode struct {
	Name    string             `xml:"name,attr"`
	Default string             `xml:"default,attr"`
	Node    []NetworkMatchNode `xml:"node"`
}

// NetworkMatchNode carries cidr or domain, never both.
type NetworkMatchNode struct {
	Type   string `xml:"type,attr"`
	CIDR   string `xml:"cidr,attr,omitempty"`
	Domain string `xml:"domain,attr,omitempty"`
}

type ProfilesNode struct {
	Profile []ProfileNode `xml:"profile"`
}

type ProfileNode struct {
	Name     string             `xml:"name,attr"`
	Aliases  AliasesNode        `xml:"aliases"`
	Gateways GatewaysNode       `xml:"gateways"`
	Domains  ProfileDomainsNode `xml:"domains"`
	Settings SettingsNode       `xml:"settings"`
}

type AliasesNode struct{}

type GatewaysNode struct {
	Include []PreProcessNode `xml:"X-PRE-PROCESS"`
}

type PreProcessNode struct {
	Cmd  string `xml:"cmd,attr"`
	Data string `xml:"data,attr"`
}

type ProfileDomainsNode struct {
	Domain []ProfileDomainNode `xml:"domain"`
}

type ProfileDomainNode struct {
	Name  string `xml:"name,attr"`
	Alias string `xml:"alias,attr"`
	Parse string `xml:"parse,attr"`
}

type SettingsNode struct {
	Param []ParamNode `xml:"param"`
}

type LanguageNode struct {
	Name        string      `xml:"name,attr"`
	SayModule   string      `xml:"say-module,attr"`
	SoundPrefix string      `xml:"sound-prefix,attr"`
	Phrases     PhrasesNode `xml:"phrases"`
}

type PhrasesNode struct {
	Macros MacrosNode `xml:"macros"`
}

type MacrosNode struct {
	Macro []MacroNode `xml:"macro"`
}

type MacroNode struct {
	Name  string         `xml:"name,attr"`
	Input MacroInputNode `xml:"input"`
}

type MacroInputNode struct {
	Pattern string         `xml:"pattern,attr"`
	Match   MacroMatchNode `xml:"match"`
}

type MacroMatchNode struct {
	Action []PhraseActionNode `xml:"action"`
}

type PhraseActionNode struct {
	Function string `xml:"function,attr"`
	Data     string `xml:"data,attr,omitempty"`
}

// NewDocument returns the outer envelope with one named section.
func NewDocument(section Section) *Document {
	return &Document{Type: DocumentType, Section: []Section{section}}
}

// NotFound is the protocol's explicit "no match" answer. The switch treats
// it as a normal outcome and moves on to its next lookup source.
func NotFound() *Document {
	return NewDocument(Section{
		Name:   "result",
		Result: &ResultNode{Status: "not found"},
	})
}

// DirectoryNotFound is the directory-flavored no-match answer.
func DirectoryNotFound() *Document {
	return NewDocument(Section{
		Name:   "directory",
		Result: &ResultNode{Status: "not found"},
	})
}

// ErrorResult reports an infrastructure failure. Never use it for a
// legitimate non-match; the switch aborts processing on it.
func ErrorResult(data string) *Document {
	return NewDocument(Section{
		Name:   "result",
		Result: &ResultNode{Status: "error", Data: data},
	})
}

// Render marshals the document with two-space indentation.
func (d *Document) Render() (string, error) {
	var b strings.Builder
	enc := xml.NewEncoder(&b)
	enc.Indent("", "  ")
	if err := enc.Encode(d); err != nil {
		return "", err
	}
	return b.String(), nil
}
