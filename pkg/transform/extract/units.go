package extract

import (
	"regexp"
	"sort"
	"strings"
)

// unit is one recognizable unit of measure. A value converts to its
// type's base unit as value*factor + offset.
type unit struct {
	kind    string
	symbol  string
	name    string
	factor  float64
	offset  float64
	aliases []string
}

var units = []unit{
	{kind: "angle", symbol: "deg", name: "degree", factor: 1, aliases: []string{"deg", "°", "degree", "degrees"}},
	{kind: "angle", symbol: "rad", name: "radian", factor: 57.29577951308232, aliases: []string{"rad"}},

	{kind: "area", symbol: "m^2", name: "square metre", factor: 1, aliases: []string{"m^2", "m²", "sq m", "sqm"}},
	{kind: "area", symbol: "cm^2", name: "square centimetre", factor: 1e-4, aliases: []string{"cm^2", "cm²", "sq cm"}},
	{kind: "area", symbol: "mm^2", name: "square millimetre", factor: 1e-6, aliases: []string{"mm^2", "mm²", "sq mm"}},
	{kind: "area", symbol: "ft^2", name: "square foot", factor: 0.09290304, aliases: []string{"ft^2", "ft²", "sq ft", "sqft"}},
	{kind: "area", symbol: "in^2", name: "square inch", factor: 0.00064516, aliases: []string{"in^2", "in²", "sq in"}},

	{kind: "capacitance", symbol: "uF", name: "microfarad", factor: 1e-6, aliases: []string{"uF", "µF", "μF"}},
	{kind: "capacitance", symbol: "nF", name: "nanofarad", factor: 1e-9, aliases: []string{"nF"}},
	{kind: "capacitance", symbol: "pF", name: "picofarad", factor: 1e-12, aliases: []string{"pF"}},

	{kind: "current", symbol: "A", name: "ampere", factor: 1, aliases: []string{"A", "amp", "amps"}},
	{kind: "current", symbol: "mA", name: "milliampere", factor: 1e-3, aliases: []string{"mA"}},

	{kind: "data transfer rate", symbol: "kbps", name: "kilobit per second", factor: 1e3, aliases: []string{"kbps", "kb/s"}},
	{kind: "data transfer rate", symbol: "Mbps", name: "megabit per second", factor: 1e6, aliases: []string{"Mbps", "Mb/s"}},
	{kind: "data transfer rate", symbol: "Gbps", name: "gigabit per second", factor: 1e9, aliases: []string{"Gbps", "Gb/s"}},

	{kind: "electrical resistance", symbol: "ohm", name: "ohm", factor: 1, aliases: []string{"Ω", "ohm", "ohms"}},
	{kind: "electrical resistance", symbol: "kohm", name: "kiloohm", factor: 1e3, aliases: []string{"kΩ", "kohm"}},

	{kind: "energy", symbol: "J", name: "joule", factor: 1, aliases: []string{"J"}},
	{kind: "energy", symbol: "kJ", name: "kilojoule", factor: 1e3, aliases: []string{"kJ"}},
	{kind: "energy", symbol: "Wh", name: "watt hour", factor: 3600, aliases: []string{"Wh"}},
	{kind: "energy", symbol: "kWh", name: "kilowatt hour", factor: 3.6e6, aliases: []string{"kWh"}},

	{kind: "force", symbol: "N", name: "newton", factor: 1, aliases: []string{"N"}},
	{kind: "force", symbol: "kN", name: "kilonewton", factor: 1e3, aliases: []string{"kN"}},
	{kind: "force", symbol: "lbf", name: "pound-force", factor: 4.4482216152605, aliases: []string{"lbf"}},

	{kind: "frequency", symbol: "Hz", name: "hertz", factor: 1, aliases: []string{"Hz"}},
	{kind: "frequency", symbol: "kHz", name: "kilohertz", factor: 1e3, aliases: []string{"kHz"}},
	{kind: "frequency", symbol: "MHz", name: "megahertz", factor: 1e6, aliases: []string{"MHz"}},
	{kind: "frequency", symbol: "GHz", name: "gigahertz", factor: 1e9, aliases: []string{"GHz"}},

	{kind: "length", symbol: "m", name: "metre", factor: 1, aliases: []string{"m", "metre", "meter", "metres", "meters"}},
	{kind: "length", symbol: "mm", name: "millimetre", factor: 1e-3, aliases: []string{"mm"}},
	{kind: "length", symbol: "cm", name: "centimetre", factor: 1e-2, aliases: []string{"cm"}},
	{kind: "length", symbol: "km", name: "kilometre", factor: 1e3, aliases: []string{"km"}},
	{kind: "length", symbol: "in", name: "inch", factor: 0.0254, aliases: []string{"in", "inch", "inches"}},
	{kind: "length", symbol: "ft", name: "foot", factor: 0.3048, aliases: []string{"ft", "foot", "feet"}},
	{kind: "length", symbol: "yd", name: "yard", factor: 0.9144, aliases: []string{"yd"}},
	{kind: "length", symbol: "mi", name: "mile", factor: 1609.344, aliases: []string{"mi", "mile", "miles"}},

	{kind: "power", symbol: "W", name: "watt", factor: 1, aliases: []string{"W"}},
	{kind: "power", symbol: "kW", name: "kilowatt", factor: 1e3, aliases: []string{"kW"}},
	{kind: "power", symbol: "MW", name: "megawatt", factor: 1e6, aliases: []string{"MW"}},
	{kind: "power", symbol: "hp", name: "horsepower", factor: 745.69987158227, aliases: []string{"hp"}},

	{kind: "pressure", symbol: "Pa", name: "pascal", factor: 1, aliases: []string{"Pa"}},
	{kind: "pressure", symbol: "kPa", name: "kilopascal", factor: 1e3, aliases: []string{"kPa"}},
	{kind: "pressure", symbol: "MPa", name: "megapascal", factor: 1e6, aliases: []string{"MPa"}},
	{kind: "pressure", symbol: "bar", name: "bar", factor: 1e5, aliases: []string{"bar"}},
	{kind: "pressure", symbol: "psi", name: "pound per square inch", factor: 6894.757293168, aliases: []string{"psi"}},

	{kind: "speed", symbol: "m/s", name: "metre per second", factor: 1, aliases: []string{"m/s"}},
	{kind: "speed", symbol: "km/h", name: "kilometre per hour", factor: 1 / 3.6, aliases: []string{"km/h", "kph"}},
	{kind: "speed", symbol: "mph", name: "mile per hour", factor: 0.44704, aliases: []string{"mph"}},

	{kind: "temperature", symbol: "°C", name: "degree Celsius", factor: 1, offset: 273.15, aliases: []string{"°C", "degC"}},
	{kind: "temperature", symbol: "°F", name: "degree Fahrenheit", factor: 5.0 / 9, offset: 273.15 - 32*5.0/9, aliases: []string{"°F", "degF"}},
	{kind: "temperature", symbol: "K", name: "kelvin", factor: 1, aliases: []string{"K"}},

	{kind: "time", symbol: "s", name: "second", factor: 1, aliases: []string{"s", "sec", "secs"}},
	{kind: "time", symbol: "ms", name: "millisecond", factor: 1e-3, aliases: []string{"ms"}},
	{kind: "time", symbol: "min", name: "minute", factor: 60, aliases: []string{"min", "mins"}},
	{kind: "time", symbol: "h", name: "hour", factor: 3600, aliases: []string{"h", "hr", "hrs"}},

	{kind: "voltage", symbol: "V", name: "volt", factor: 1, aliases: []string{"V"}},
	{kind: "voltage", symbol: "kV", name: "kilovolt", factor: 1e3, aliases: []string{"kV"}},
	{kind: "voltage", symbol: "mV", name: "millivolt", factor: 1e-3, aliases: []string{"mV"}},

	{kind: "volume", symbol: "m^3", name: "cubic metre", factor: 1, aliases: []string{"m^3", "m³", "cu m"}},
	{kind: "volume", symbol: "cm^3", name: "cubic centimetre", factor: 1e-6, aliases: []string{"cm^3", "cm³", "cc"}},
	{kind: "volume", symbol: "ft^3", name: "cubic foot", factor: 0.028316846592, aliases: []string{"ft^3", "ft³", "cu ft"}},
	{kind: "volume", symbol: "L", name: "litre", factor: 1e-3, aliases: []string{"L", "l", "litre", "liter", "litres", "liters"}},
	{kind: "volume", symbol: "mL", name: "millilitre", factor: 1e-6, aliases: []string{"mL", "ml"}},
	{kind: "volume", symbol: "gal", name: "gallon", factor: 0.003785411784, aliases: []string{"gal", "gallon", "gallons"}},

	{kind: "volumetric flow", symbol: "L/min", name: "litre per minute", factor: 1e-3 / 60, aliases: []string{"L/min", "lpm"}},
	{kind: "volumetric flow", symbol: "gpm", name: "gallon per minute", factor: 0.003785411784 / 60, aliases: []string{"gpm"}},

	{kind: "weight", symbol: "kg", name: "kilogram", factor: 1, aliases: []string{"kg", "kgs"}},
	{kind: "weight", symbol: "g", name: "gram", factor: 1e-3, aliases: []string{"g"}},
	{kind: "weight", symbol: "mg", name: "milligram", factor: 1e-6, aliases: []string{"mg"}},
	{kind: "weight", symbol: "lb", name: "pound", factor: 0.45359237, aliases: []string{"lb", "lbs"}},
	{kind: "weight", symbol: "oz", name: "ounce", factor: 0.028349523125, aliases: []string{"oz"}},
}

// attributeKinds lists every accepted attribute_type; some have no units
// in the table and never match.
var attributeKinds = map[string]string{
	"angle": "angle", "area": "area", "capacitance": "capacitance",
	"charge": "charge", "current": "current",
	"data transfer rate": "data transfer rate", "electrical conductance": "electrical conductance",
	"electrical resistance": "electrical resistance", "energy": "energy", "force": "force",
	"frequency": "frequency", "inductance": "inductance", "instance frequency": "instance frequency",
	"length": "length", "luminous flux": "luminous flux", "weight": "weight", "power": "power",
	"pressure": "pressure", "speed": "speed", "velocity": "speed", "temperature": "temperature",
	"time": "time", "voltage": "voltage", "volume": "volume", "volumetric flow": "volumetric flow",
	// legacy names
	"mass": "weight", "electric potential": "voltage",
}

var (
	byAlias   = map[string]*unit{}
	measureRe *regexp.Regexp
)

func init() {
	var aliases []string
	for i := range units {
		for _, a := range units[i].aliases {
			byAlias[a] = &units[i]
			aliases = append(aliases, a)
		}
	}
	// longest first so m^2 wins over m
	sort.SliceStable(aliases, func(a, b int) bool { return len(aliases[a]) > len(aliases[b]) })
	quoted := make([]string, len(aliases))
	for i, a := range aliases {
		quoted[i] = regexp.QuoteMeta(a)
	}
	measureRe = regexp.MustCompile(`(\d+(?:\.\d+)?|\.\d+) ?(` + strings.Join(quoted, "|") + `)`)
}

// lookupUnit finds a unit by alias, then by name case-insensitively.
func lookupUnit(s string) (*unit, bool) {
	if u, ok := byAlias[s]; ok {
		return u, true
	}
	for i := range units {
		if strings.EqualFold(units[i].name, s) || strings.EqualFold(units[i].symbol, s) {
			return &units[i], true
		}
	}
	return nil, false
}
