package domain

import "fmt"

type DatasetProfile struct {
	Name      string
	Title     string
	Path      string
	Delimiter rune
}

func (p DatasetProfile) String() string {
	return fmt.Sprintf("%s:%s", p.Name, p.Path)
}
