package routing

import (
	"strings"
	"unicode"
)

// Target is the class of destination a connection routes to
type Target string

const (
	TargetPrivateWAN Target = "private_wan"
	TargetInternet   Target = "internet"
	TargetAWS        Target = "aws"
	TargetAzure      Target = "azure"
	TargetGCP        Target = "gcp"
	TargetOracle     Target = "oracle"
)

// Targets lists every target in band order: clouds first, then WAN clouds
var Targets = []Target{
	TargetAWS,
	TargetAzure,
	TargetGCP,
	TargetOracle,
	TargetPrivateWAN,
	TargetInternet,
}

// NodeIDPrefix prefixes the node IDs of lazily created target nodes
const NodeIDPrefix = "cloud:"

var wanKeywords = []string{"mpls", "vpls"}

// Keywords match as substrings; words must appear as a whole word
// ("oci" would otherwise match "social")
var cloudKeywords = []struct {
	target   Target
	keywords []string
	words    []string
}{
	{TargetAWS, []string{"aws", "amazon"}, nil},
	{TargetAzure, []string{"azure", "microsoft"}, nil},
	{TargetGCP, []string{"gcp", "google"}, nil},
	{TargetOracle, []string{"oracle"}, []string{"oci"}},
}

var targetLabels = map[Target]string{
	TargetPrivateWAN: "MPLS / Private WAN",
	TargetInternet:   "Internet",
	TargetAWS:        "AWS",
	TargetAzure:      "Azure",
	TargetGCP:        "Google Cloud",
	TargetOracle:     "Oracle Cloud",
}

// IsCloud reports whether the target is a hyperscaler
func (t Target) IsCloud() bool {
	switch t {
	case TargetAWS, TargetAzure, TargetGCP, TargetOracle:
		return true
	}
	return false
}

// Label returns the display name of the target
func (t Target) Label() string {
	if label, ok := targetLabels[t]; ok {
		return label
	}
	return string(t)
}

// NodeID returns the scene node ID of the target
func (t Target) NodeID() string {
	return NodeIDPrefix + string(t)
}

// Classify maps a non point-to-point connection to its target class.
// The type is checked for private WAN keywords, then type and provider
// text for cloud keywords; anything else is Internet.
func Classify(connType, provider string) Target {
	t := strings.ToLower(connType)
	for _, kw := range wanKeywords {
		if strings.Contains(t, kw) {
			return TargetPrivateWAN
		}
	}

	if target, ok := matchCloud(t); ok {
		return target
	}
	if target, ok := matchCloud(strings.ToLower(provider)); ok {
		return target
	}

	return TargetInternet
}

func matchCloud(text string) (Target, bool) {
	if text == "" {
		return "", false
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, entry := range cloudKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.target, true
			}
		}
		for _, w := range entry.words {
			for _, word := range words {
				if word == w {
					return entry.target, true
				}
			}
		}
	}
	return "", false
}
