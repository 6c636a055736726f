package matrix

// DeviceMatrix is what a device stamps into. Indices are 1-based; 0 is
// ground and must not be passed.
type DeviceMatrix interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
}
