package response

import "strings"

// Icon is the closed set of glyphs the storefront renders for categories and services.
type Icon int

const (
	IconDefault Icon = iota
	IconCleaning
	IconPlumbing
	IconElectrical
	IconCarpentry
	IconPainting
	IconAppliance
	IconPestControl
	IconMoving
	IconFurniture
	IconElectronics
	IconBeauty
)

// ParseIcon maps a backend icon name to an Icon. Unknown or empty names become IconDefault.
func ParseIcon(name string) Icon {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cleaning", "broom", "sparkles":
		return IconCleaning
	case "plumbing", "wrench", "droplet":
		return IconPlumbing
	case "electrical", "electrician", "zap", "bolt":
		return IconElectrical
	case "carpentry", "hammer":
		return IconCarpentry
	case "painting", "paint", "paintbrush":
		return IconPainting
	case "appliance", "appliances", "washing-machine", "refrigerator":
		return IconAppliance
	case "pest-control", "pest", "bug":
		return IconPestControl
	case "moving", "truck", "packers":
		return IconMoving
	case "furniture", "sofa", "bed":
		return IconFurniture
	case "electronics", "tv", "laptop":
		return IconElectronics
	case "beauty", "salon", "scissors":
		return IconBeauty
	}
	return IconDefault
}

func (i Icon) String() string {
	switch i {
	case IconCleaning:
		return "cleaning"
	case IconPlumbing:
		return "plumbing"
	case IconElectrical:
		return "electrical"
	case IconCarpentry:
		return "carpentry"
	case IconPainting:
		return "painting"
	case IconAppliance:
		return "appliance"
	case IconPestControl:
		return "pest-control"
	case IconMoving:
		return "moving"
	case IconFurniture:
		return "furniture"
	case IconElectronics:
		return "electronics"
	case IconBeauty:
		return "beauty"
	}
	return "default"
}

func (i Icon) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
