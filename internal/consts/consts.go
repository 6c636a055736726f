package consts

const (
	Charge      = 1.6021918e-19 // Elementary charge (C)
	Boltzmann   = 1.3806226e-23 // Boltzmann constant (J/K)
	Kelvin      = 273.15        // 0 degC in K
	NominalTemp = 27.0          // Default circuit temperature (degC)
)
