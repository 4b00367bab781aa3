package inspections

import "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"

// TemplateItem is one named line of a checklist template.
type TemplateItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// quickItems is the drive-up look-over done on every walk-in.
var quickItems = []TemplateItem{
	{Key: "exterior_lights", Label: "Exterior lights"},
	{Key: "tire_condition", Label: "Tire condition and pressure"},
	{Key: "windshield", Label: "Windshield and wipers"},
	{Key: "fluid_leaks", Label: "Visible fluid leaks"},
	{Key: "dash_warnings", Label: "Dashboard warning lights"},
}

// multiPointItems extends the quick pass with under-hood and brake checks.
var multiPointItems = append(append([]TemplateItem{}, quickItems...),
	TemplateItem{Key: "engine_oil", Label: "Engine oil level and condition"},
	TemplateItem{Key: "coolant", Label: "Coolant level"},
	TemplateItem{Key: "brake_fluid", Label: "Brake fluid level"},
	TemplateItem{Key: "battery", Label: "Battery terminals and charge"},
	TemplateItem{Key: "belts_hoses", Label: "Belts and hoses"},
	TemplateItem{Key: "brake_pads", Label: "Brake pad wear"},
	TemplateItem{Key: "air_filter", Label: "Engine air filter"},
	TemplateItem{Key: "cabin_filter", Label: "Cabin air filter"},
)

// fullDiagnosticItems is the complete bay inspection.
var fullDiagnosticItems = append(append([]TemplateItem{}, multiPointItems...),
	TemplateItem{Key: "obd_scan", Label: "OBD-II diagnostic scan"},
	TemplateItem{Key: "suspension", Label: "Suspension and steering components"},
	TemplateItem{Key: "exhaust", Label: "Exhaust system"},
	TemplateItem{Key: "drivetrain", Label: "Drivetrain and CV joints"},
	TemplateItem{Key: "ac_performance", Label: "A/C performance"},
	TemplateItem{Key: "alignment_check", Label: "Alignment check"},
)

var templatesByDepth = map[enums.InspectionDepth][]TemplateItem{
	enums.InspectionDepthQuick:          quickItems,
	enums.InspectionDepthMultiPoint:     multiPointItems,
	enums.InspectionDepthFullDiagnostic: fullDiagnosticItems,
}

// Template returns the fixed, ordered checklist for a depth.
func Template(depth enums.InspectionDepth) ([]TemplateItem, bool) {
	items, ok := templatesByDepth[depth]
	if !ok {
		return nil, false
	}
	out := make([]TemplateItem, len(items))
	copy(out, items)
	return out, true
}
