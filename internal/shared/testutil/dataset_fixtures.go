package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"evdash/internal/dataset"
)

// Fixture file contents. They keep the shape of the real inputs: untrimmed
// mixed-case headers, a blank sales cell and a thousands separator.
const (
	SalesCSV = "Cat, Maker ,2021,2022,2023\n" +
		"4W,TATA MOTORS,100,200,300\n" +
		"2W,OLA ELECTRIC,50,,400\n" +
		"2W,ATHER ENERGY,30,60,90\n" +
		"3W,MAHINDRA,0,10,20\n"

	VehicleClassCSV = "Vehicle Class,Total Registration\n" +
		"MOTOR CAR,\"1,200\"\n" +
		"M-CYCLE/SCOOTER,800\n" +
		"E-RICKSHAW,\n"

	MakerByPlaceCSV = "EV Maker,Place,State\n" +
		"Tata Motors,Pune,Maharashtra\n" +
		"Ola Electric,Bengaluru,Karnataka\n"

	CategoryCSV = "Date,FOUR WHEELER,TWO WHEELER\n" +
		"01/01/23,10,20\n" +
		"01/02/23,12,25\n"

	OperationalPCCSV = "State,No. of Operational PCS\n" +
		"Delhi,1886\n" +
		"Karnataka,5765\n"
)

// Fixture facts derived from the contents above.
const (
	FixtureLatestYear = 2023
	FixtureMinYear    = 2021
)

// FixtureMakers lists the makers in first-seen order.
var FixtureMakers = []string{"TATA MOTORS", "OLA ELECTRIC", "ATHER ENERGY", "MAHINDRA"}

// WriteDatasetFiles writes the five fixture files into dir and returns
// their sources.
func WriteDatasetFiles(t testing.TB, dir string) dataset.Sources {
	t.Helper()
	src := dataset.Sources{
		MakerByPlace:  filepath.Join(dir, "EV Maker by Place.csv"),
		Category:      filepath.Join(dir, "ev_cat_01-24.csv"),
		Sales:         filepath.Join(dir, "ev_sales_by_makers_and_cat_15-24.csv"),
		OperationalPC: filepath.Join(dir, "OperationalPC.csv"),
		VehicleClass:  filepath.Join(dir, "Vehicle Class - All.csv"),
	}
	files := map[string]string{
		src.MakerByPlace:  MakerByPlaceCSV,
		src.Category:      CategoryCSV,
		src.Sales:         SalesCSV,
		src.OperationalPC: OperationalPCCSV,
		src.VehicleClass:  VehicleClassCSV,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", path, err)
		}
	}
	return src
}

// NewDataset parses the fixtures in memory and prepares them.
func NewDataset(t testing.TB) *dataset.Dataset {
	t.Helper()
	parse := func(name, content string) *dataset.Table {
		table, err := dataset.ParseTable(name, name+".csv", strings.NewReader(content))
		if err != nil {
			t.Fatalf("parse fixture %s: %v", name, err)
		}
		return table
	}
	bundle := &dataset.Bundle{
		MakerByPlace:  parse(dataset.MakerByPlace, MakerByPlaceCSV),
		Category:      parse(dataset.Category, CategoryCSV),
		Sales:         parse(dataset.Sales, SalesCSV),
		OperationalPC: parse(dataset.OperationalPC, OperationalPCCSV),
		VehicleClass:  parse(dataset.VehicleClass, VehicleClassCSV),
	}
	data, err := dataset.Prepare(bundle)
	if err != nil {
		t.Fatalf("prepare fixtures: %v", err)
	}
	return data
}
