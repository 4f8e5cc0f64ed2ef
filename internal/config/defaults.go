package config

var defaultSkills = []int{
	3, 9, 13, 15, 17, 20, 21, 26, 32, 38, 44, 57, 69, 70, 77, 106, 107, 115, 116, 127,
	137, 168, 170, 174, 196, 197, 204, 229, 232, 234, 247, 250, 262, 264, 277, 278, 284,
	305, 310, 323, 324, 335, 359, 365, 368, 369, 371, 375, 408, 412, 433, 436, 444, 445,
	482, 502, 564, 624, 662, 710, 759, 878, 950, 953, 959, 1063, 1185, 1314, 1623, 2071,
	2128, 2222, 2245, 2338, 2342, 2507, 2586, 2587, 2589, 2605, 2625, 2645, 2673, 2698,
	2717, 2745,
}

var defaultExcludedCurrencies = []string{"INR", "PKR", "BDT"}

var defaultExcludedCountries = []string{
	"india", "bangladesh", "pakistan", "jamaica", "srilanka", "sri lanka", "nepal",
	"south africa", "kenya", "uganda", "egypt", "indonesia", "philippines", "afganistan",
}
