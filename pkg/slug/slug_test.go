package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var slugShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestGenerate(t *testing.T) {
	cases := map[string]string{
		"Banarasi Silk Saree":     "banarasi-silk-saree",
		"Kurtas & Tunics":         "kurtas-and-tunics",
		"Crêpe Dupatta":           "crepe-dupatta",
		"Naïve Café Potli":        "naive-cafe-potli",
		"  Festive   Kurta #12 ":  "festive-kurta-12",
		"--already-slugged--":     "already-slugged",
		"ALL UPPER":               "all-upper",
		"Rose&Gold":               "rose-and-gold",
		"Set of 3 / Bangles":      "set-of-3-bangles",
	}
	for in, want := range cases {
		got := Generate(in)
		assert.Equal(t, want, got, "Generate(%q)", in)
		assert.Regexp(t, slugShape, got)
	}
}

func TestGenerate_NothingUsable(t *testing.T) {
	for _, in := range []string{"", "!!!", "   ", "€ ¥"} {
		assert.Empty(t, Generate(in), "Generate(%q)", in)
	}
}

func TestGenerate_StableOnOwnOutput(t *testing.T) {
	for _, in := range []string{"Zari Potli Bag", "Kundan Choker Set", "Crêpe & Chiffon"} {
		once := Generate(in)
		assert.Equal(t, once, Generate(once))
	}
}
