package roomle

import colorful "github.com/lucasb-eyer/go-colorful"

// LinearToSRGB companders a linear channel value to sRGB, clamped to [0,1]
// and quantized to 8 bits.
func LinearToSRGB(v float64) float64 {
	r, _, _ := colorful.LinearRgb(v, v, v).Clamped().RGB255()
	return float64(r) / 255
}

// LinearToSRGBColor converts the first three components of a color value.
// Missing components are taken as 0.
func LinearToSRGBColor(v Value) [3]float64 {
	c := colorful.LinearRgb(v.At(0), v.At(1), v.At(2)).Clamped()
	r, g, b := c.RGB255()
	return [3]float64{float64(r) / 255, float64(g) / 255, float64(b) / 255}
}
