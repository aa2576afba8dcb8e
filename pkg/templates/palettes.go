package templates

import "strings"

// Palette — именованная цветовая палитра (hex цвета).
type Palette struct {
	Name   string   `json:"name"`
	Mood   string   `json:"mood"`
	Colors []string `json:"colors"`
}

var palettes = []Palette{
	{Name: "Corporate Blue", Mood: "professional", Colors: []string{"#0B3C5D", "#328CC1", "#D9B310", "#F5F5F5", "#1D2731"}},
	{Name: "Slate", Mood: "professional", Colors: []string{"#2F3E46", "#354F52", "#52796F", "#84A98C", "#CAD2C5"}},
	{Name: "Sunset Pop", Mood: "vibrant", Colors: []string{"#FF6B6B", "#FFD93D", "#6BCB77", "#4D96FF", "#FFFFFF"}},
	{Name: "Neon", Mood: "vibrant", Colors: []string{"#F72585", "#7209B7", "#3A0CA3", "#4361EE", "#4CC9F0"}},
	{Name: "Ocean Calm", Mood: "calm", Colors: []string{"#E0FBFC", "#C2DFE3", "#9DB4C0", "#5C6B73", "#253237"}},
	{Name: "Sage", Mood: "calm", Colors: []string{"#F1FAEE", "#A8DADC", "#457B9D", "#1D3557", "#E9F5DB"}},
	{Name: "Midnight", Mood: "dark", Colors: []string{"#0D1B2A", "#1B263B", "#415A77", "#778DA9", "#E0E1DD"}},
	{Name: "Playful", Mood: "playful", Colors: []string{"#FFADAD", "#FFD6A5", "#FDFFB6", "#CAFFBF", "#9BF6FF"}},
}

// Palettes возвращает палитры для настроения mood.
//
// Пустое настроение — все палитры. Неизвестное — пустой список.
func Palettes(mood string) []Palette {
	mood = strings.ToLower(strings.TrimSpace(mood))

	out := make([]Palette, 0, len(palettes))
	for _, p := range palettes {
		if mood == "" || p.Mood == mood {
			cp := p
			cp.Colors = append([]string(nil), p.Colors...)
			out = append(out, cp)
		}
	}
	return out
}

// Moods возвращает известные настроения в порядке первого появления.
func Moods() []string {
	seen := make(map[string]bool)
	var moods []string
	for _, p := range palettes {
		if !seen[p.Mood] {
			seen[p.Mood] = true
			moods = append(moods, p.Mood)
		}
	}
	return moods
}
