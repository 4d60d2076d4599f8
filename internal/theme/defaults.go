package theme

// builtin is the default token tree. It is never returned directly; callers
// receive copies from Default.
var builtin = Tree{
	"colors": Tree{
		"transparent": Leaf("transparent"),
		"current":     Leaf("currentColor"),
		"black":       Leaf("#000000"),
		"white":       Leaf("#ffffff"),
		"gray": Tree{
			"100": Leaf("#f3f4f6"),
			"300": Leaf("#d1d5db"),
			"500": Leaf("#6b7280"),
			"700": Leaf("#374151"),
			"900": Leaf("#111827"),
		},
		"red": Tree{
			"100": Leaf("#fee2e2"),
			"500": Leaf("#ef4444"),
			"900": Leaf("#7f1d1d"),
		},
		"green": Tree{
			"100": Leaf("#dcfce7"),
			"600": Leaf("#16a34a"),
			"900": Leaf("#14532d"),
		},
		"sky": Tree{
			"100": Leaf("#e0f2fe"),
			"600": Leaf("#0284c7"),
			"900": Leaf("#0c4a6e"),
		},
	},
	"spacing": Tree{
		"0":  Leaf("0px"),
		"1":  Leaf("0.25rem"),
		"2":  Leaf("0.5rem"),
		"4":  Leaf("1rem"),
		"8":  Leaf("2rem"),
		"10": Leaf("2.5rem"),
		"20": Leaf("5rem"),
	},
	"borderRadius": Tree{
		"none":    Leaf("0px"),
		"DEFAULT": Leaf("0.25rem"),
		"lg":      Leaf("0.5rem"),
		"full":    Leaf("9999px"),
	},
	"screens": Tree{
		"sm": Leaf("640px"),
		"md": Leaf("768px"),
		"lg": Leaf("1024px"),
		"xl": Leaf("1280px"),
	},
}

// Default returns a fresh copy of the built-in theme.
func Default() Tree {
	return builtin.Clone()
}
