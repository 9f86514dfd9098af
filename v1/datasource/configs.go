package datasource

import "github.com/Aleph-Alpha/mongoplus/v1/mongodb"

// DefaultName is the datasource used when nothing selects one and Config
// names no default.
const DefaultName = "master"

// Config lists the datasources a Resolver may open.
//
//	default: master
//	sources:
//	  - name: master
//	    uri: mongodb://primary:27017
//	    databases: [shop, audit]
//	  - name: reporting
//	    uri: mongodb://replica:27017
//	    databases: [warehouse]
type Config struct {
	// Default is the datasource used when neither the entity nor the
	// context selects one. Empty means DefaultName, or the first source
	// when none is called DefaultName.
	Default string `yaml:"default"`

	Sources []Source `yaml:"sources"`
}

// Source is one named deployment.
type Source struct {
	Name           string `yaml:"name"`
	mongodb.Config `yaml:",inline"`
}

// Source returns the source called name.
func (c Config) Source(name string) (Source, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// DefaultSource returns the name of the default datasource.
func (c Config) DefaultSource() string {
	if c.Default != "" {
		return c.Default
	}
	if _, ok := c.Source(DefaultName); ok || len(c.Sources) == 0 {
		return DefaultName
	}
	return c.Sources[0].Name
}
