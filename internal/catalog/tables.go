package catalog

// Typical areas (m²) of common objects, keyed by detector class id.
var builtinReferences = []Reference{
	{0, "person", 0.79},
	{1, "bicycle", 1.08},
	{2, "car", 8.1},
	{3, "traffic light", 0.3},
	{4, "fire hydrant", 0.25},
	{5, "stop sign", 0.71},
	{6, "parking meter", 0.15},
	{7, "bench", 0.75},
	{8, "bird", 0.04},
	{9, "umbrella", 0.785},
	{10, "bottle", 0.0236},
	{11, "wine glass", 0.0157},
	{12, "coffee cup", 0.00785},
	{13, "fork", 0.004},
	{14, "kitchen knife", 0.015},
	{15, "spoon", 0.006},
	{16, "bowl", 0.0177},
	{17, "chair", 0.5},
	{18, "couch", 2},
	{19, "flowerpot", 0.25},
	{20, "dining table", 1.5},
	{21, "laptop", 0.06},
	{22, "mobile phone", 0.0105},
	{23, "refrigerator", 1.26},
	{24, "clock", 0.071},
	{25, "vase", 0.053},
	{26, "window", 1.8},
	{27, "door", 1.6},
	{28, "serving tray", 0.12},
	{29, "plate", 0.071},
}

// Flat display areas (m²) per setting and venue category.
var builtinDefaults = map[Setting]map[Category]float64{
	Indoor: {
		Bar:       30.0,
		Beverage:  20.0,
		Cantonese: 25.0,
		HairSalon: 15.0,
		Hotpot:    28.0,
		Japanese:  22.0,
		Store:     35.0,
		Szechuan:  27.0,
	},
	Outdoor: {
		Bar:       40.0,
		Beverage:  30.0,
		Cantonese: 35.0,
		HairSalon: 25.0,
		Hotpot:    38.0,
		Japanese:  32.0,
		Store:     45.0,
		Szechuan:  37.0,
	},
}
