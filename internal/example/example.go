package example

import (
	"nvmcc/internal/example/lenet"
	"nvmcc/internal/example/squeezenet"
)

var menu = [...]struct {
	name string
	call func() []byte
}{
	{"LeNet5", lenet.LeNet5},
	{"SqueezeNet", squeezenet.SqueezeNet},
}

func Names() []string {
	names := make([]string, len(menu))
	for i := range &menu {
		names[i] = menu[i].name
	}
	return names
}

func Generate(name string) []byte {
	for i := range &menu {
		if menu[i].name == name {
			return menu[i].call()
		}
	}
	return nil
}
