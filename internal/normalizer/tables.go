// Package normalizer maps free-text drug mentions to canonical drug names,
// doses, units, and routes (spec.md §4.B). It is stateless: every lookup is
// a case-insensitive map access against three module-level tables, which
// callers may extend at construction time without mutating shared state
// (spec.md §9 design note).
package normalizer

import "strings"

// UnitConversion is the canonical unit a raw unit maps to, plus the
// multiplier applied to the dose on the way in.
type UnitConversion struct {
	Canonical  string
	Multiplier float64
}

// defaultAliases maps brand/abbreviation names to canonical ingredient
// names. Unknown names pass through lowercased.
var defaultAliases = map[string]string{
	// NSAIDs
	"rimadyl":    "carprofen",
	"novox":      "carprofen",
	"quellin":    "carprofen",
	"metacam":    "meloxicam",
	"loxicom":    "meloxicam",
	"previcox":   "firocoxib",
	"deramaxx":   "deracoxib",
	"galliprant": "grapiprant",
	"onsior":     "robenacoxib",

	// Sedatives/tranquilizers
	"ace":                  "acepromazine",
	"promace":              "acepromazine",
	"atravet":              "acepromazine",
	"acepromazine maleate": "acepromazine",

	// Anesthetics
	"propoflo":   "propofol",
	"telazol":    "tiletamine-zolazepam",
	"domitor":    "medetomidine",
	"dexdomitor": "dexmedetomidine",
	"antisedan":  "atipamezole",
	"torb":       "butorphanol",
	"torbugesic": "butorphanol",
	"ketaset":    "ketamine",

	// Antibiotics
	"clavamox":  "amoxicillin-clavulanate",
	"augmentin": "amoxicillin-clavulanate",
	"baytril":   "enrofloxacin",
	"zeniquin":  "marbofloxacin",
	"convenia":  "cefovecin",
	"simplicef": "cefpodoxime",
	"orbax":     "orbifloxacin",

	// Steroids
	"dex":         "dexamethasone",
	"depo":        "methylprednisolone",
	"depo-medrol": "methylprednisolone",
	"pred":        "prednisone",
	"prednisolone": "prednisolone",
	"vetalog":     "triamcinolone",

	// Antiparasitics
	"heartgard":  "ivermectin",
	"ivomec":     "ivermectin",
	"interceptor": "milbemycin",
	"sentinel":   "milbemycin-lufenuron",
	"revolution": "selamectin",
	"strongid":   "pyrantel",
	"panacur":    "fenbendazole",
	"drontal":    "praziquantel-pyrantel",

	// Cardiac
	"vetmedin": "pimobendan",
	"enacard":  "enalapril",
	"vasotec":  "enalapril",
	"salix":    "furosemide",
	"lasix":    "furosemide",

	// GI
	"cerenia":   "maropitant",
	"reglan":    "metoclopramide",
	"pepcid":    "famotidine",
	"zantac":    "ranitidine",
	"prilosec":  "omeprazole",
	"gastrogard": "omeprazole",
	"carafate":  "sucralfate",

	// Anticonvulsants
	"keppra":            "levetiracetam",
	"zonegran":          "zonisamide",
	"phenobarb":         "phenobarbital",
	"potassium bromide": "potassium-bromide",
	"kbr":               "potassium-bromide",

	// Thyroid
	"soloxine":   "levothyroxine",
	"thyro-tabs": "levothyroxine",
	"tapazole":   "methimazole",
	"felimazole": "methimazole",

	// Behavioral
	"clomicalm": "clomipramine",
	"reconcile": "fluoxetine",
	"prozac":    "fluoxetine",
	"sileo":     "dexmedetomidine",
	"trazadone": "trazodone",

	// Other
	"benadryl":     "diphenhydramine",
	"valium":       "diazepam",
	"tramadol hcl": "tramadol",
}

// defaultUnits maps every recognized raw unit spelling (including
// plural/singular variants) to its canonical form and dose multiplier.
// Canonical forms are mL, mg, IU, tablets, capsules, units.
var defaultUnits = map[string]UnitConversion{
	"ml":         {"mL", 1},
	"mls":        {"mL", 1},
	"milliliter": {"mL", 1},
	"milliliters": {"mL", 1},
	"cc":         {"mL", 1},
	"ccs":        {"mL", 1},

	"mg":          {"mg", 1},
	"mgs":         {"mg", 1},
	"milligram":   {"mg", 1},
	"milligrams":  {"mg", 1},
	"mcg":         {"mg", 0.001},
	"mcgs":        {"mg", 0.001},
	"microgram":   {"mg", 0.001},
	"micrograms":  {"mg", 0.001},
	"g":           {"mg", 1000},
	"gs":          {"mg", 1000},
	"gram":        {"mg", 1000},
	"grams":       {"mg", 1000},
	"kg":          {"mg", 1e6},
	"kgs":         {"mg", 1e6},
	"kilogram":    {"mg", 1e6},
	"kilograms":   {"mg", 1e6},
	"l":           {"mL", 1000},
	"liter":       {"mL", 1000},
	"liters":      {"mL", 1000},

	"iu":   {"IU", 1},
	"ius":  {"IU", 1},
	"unit": {"units", 1},
	"units": {"units", 1},

	"tablet":   {"tablets", 1},
	"tablets":  {"tablets", 1},
	"tab":      {"tablets", 1},
	"tabs":     {"tablets", 1},
	"capsule":  {"capsules", 1},
	"capsules": {"capsules", 1},
	"cap":      {"capsules", 1},
	"caps":     {"capsules", 1},
}

// defaultRoutes maps multi-word spoken forms to the canonical abbreviation.
// Unknown routes are uppercased as-is.
var defaultRoutes = map[string]string{
	"by mouth":               "PO",
	"oral":                   "PO",
	"orally":                 "PO",
	"per os":                 "PO",
	"po":                     "PO",
	"intravenous":            "IV",
	"intravenously":          "IV",
	"iv":                     "IV",
	"intramuscular":          "IM",
	"intramuscularly":        "IM",
	"im":                     "IM",
	"subcutaneous":           "SQ",
	"subcutaneously":         "SQ",
	"subq":                   "SQ",
	"sub-q":                  "SQ",
	"sq":                     "SQ",
	"sc":                     "SQ",
	"topical":                "TOP",
	"topically":              "TOP",
	"top":                    "TOP",
	"ophthalmic":             "OPH",
	"in the eye":             "OPH",
	"eye":                    "OPH",
	"oph":                    "OPH",
	"otic":                   "OT",
	"in the ear":             "OT",
	"ear":                    "OT",
	"ot":                     "OT",
	"rectal":                 "PR",
	"rectally":               "PR",
	"per rectum":             "PR",
	"pr":                     "PR",
	"intranasal":             "IN",
	"intranasally":           "IN",
	"in the nose":            "IN",
	"in":                     "IN",
	"transdermal":            "TD",
	"transdermally":          "TD",
	"td":                     "TD",
}

func lookupFold(table map[string]string, key string) (string, bool) {
	v, ok := table[strings.ToLower(strings.TrimSpace(key))]
	return v, ok
}
