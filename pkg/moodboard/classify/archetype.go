package classify

// archetypes groups the newsgroup-derived subject vocabulary into
// coarser themes. Subjects without an entry have no archetype.
var archetypes = map[string]string{
	"alt.atheism":              "religion",
	"comp.graphics":            "computers",
	"comp.os.ms-windows.misc":  "computers",
	"comp.sys.ibm.pc.hardware": "computers",
	"comp.sys.mac.hardware":    "computers",
	"comp.windows.x":           "computers",
	"misc.forsale":             "commerce",
	"rec.autos":                "vehicles",
	"rec.motorcycles":          "vehicles",
	"rec.sport.baseball":       "sports",
	"rec.sport.hockey":         "sports",
	"sci.crypt":                "science",
	"sci.electronics":          "science",
	"sci.med":                  "science",
	"sci.space":                "science",
	"soc.religion.christian":   "religion",
	"talk.politics.guns":       "politics",
	"talk.politics.mideast":    "politics",
	"talk.politics.misc":       "politics",
	"talk.religion.misc":       "religion",
}

// Archetype returns the coarse grouping for a predicted subject.
// ok is false when the subject has no mapped archetype.
func Archetype(subject string) (string, bool) {
	a, ok := archetypes[subject]
	return a, ok
}
