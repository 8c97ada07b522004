package zmakore

import (
	"fmt"
	"strings"
)

// Generator turns a rule template with "${1}", "${2}", … placeholders into a
// shell command by substituting the inputs in order.
type Generator struct {
	rule string
}

func NewGenerator(rule string) *Generator { return &Generator{rule: rule} }

func (g *Generator) SetRule(rule string) { g.rule = rule }

func (g *Generator) Rule() string { return g.rule }

func (g *Generator) Generate(inputs ...string) (string, error) {
	res := g.rule
	for idx := 0; ; idx++ {
		ph := fmt.Sprintf("${%d}", idx+1)
		if !strings.Contains(res, ph) {
			break
		}
		if idx >= len(inputs) {
			return "", fmt.Errorf("not enough inputs (%d) for rule '%s'",
				len(inputs), g.rule)
		}
		res = strings.ReplaceAll(res, ph, inputs[idx])
	}
	return res, nil
}
