package core

import (
	"strconv"
	"time"
)

// monthNames is the fixed locale used for archive labels.
var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril",
	"Mayo", "Junio", "Julio", "Agosto",
	"Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// MonthLabel returns the canonical archive label for t, e.g. "Marzo 2025".
func MonthLabel(t time.Time) string {
	return MonthName(t.Month()) + " " + strconv.Itoa(t.Year())
}
