package features

import "regexp"

var (
	digitRe   = regexp.MustCompile(`\d`)
	upperRe   = regexp.MustCompile(`^([A-Z]|[^_].*[A-Z])`)
	allCapsRe = regexp.MustCompile(`^[A-Z]+$`)
)

type builder struct {
	fv Vector
}

func (b *builder) add(name string, key string) {
	b.fv = append(b.fv, name+"="+key)
}

func (b *builder) addValue(name string, key string, value string) {
	b.fv = append(b.fv, name+"="+key+"="+value)
}

func (b *builder) addBool(name string, value bool) {
	if value {
		b.add(name, "True")
	} else {
		b.add(name, "False")
	}
}
