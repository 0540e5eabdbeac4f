package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
)

const (
	SheetZones     = "Zones"
	SheetEquipment = "Equipment"
	SheetMatrix    = "Matrix"
)

// Service is a thin façade over the repositories that produces XLSX bytes.
type Service struct {
	zones     repository.ZoneRepository
	equipment repository.EquipmentRepository
	links     repository.LinkRepository
	logger    *slog.Logger
}

func NewService(zones repository.ZoneRepository, equipment repository.EquipmentRepository, links repository.LinkRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{zones: zones, equipment: equipment, links: links, logger: logger}
}

// ExportMatrixXLSX returns the scope's matrix as a workbook. A non-empty
// building restricts the zones and the links that leave them.
func (s *Service) ExportMatrixXLSX(ctx context.Context, scope entity.Scope, building string) ([]byte, error) {
	start := time.Now()

	zones, err := s.zones.List(ctx, scope, repository.ZoneFilter{Building: building})
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	equipment, err := s.equipment.List(ctx, scope, repository.EquipmentFilter{})
	if err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	links, err := s.links.List(ctx, scope, entity.LinkFilter{})
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	if building != "" {
		keep := make(map[string]struct{}, len(zones))
		for _, z := range zones {
			keep[matrix.CanonicalCode(z.Code)] = struct{}{}
		}
		filtered := links[:0]
		for _, l := range links {
			if _, ok := keep[matrix.CanonicalCode(l.ZoneCode)]; ok {
				filtered = append(filtered, l)
			}
		}
		links = filtered
	}

	buf, err := MatrixWorkbook(zones, equipment, links)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"company_id", scope.CompanyID,
		"site_id", scope.SiteID,
		"zones", len(zones),
		"links", len(links),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

// MatrixWorkbook lays out zones, equipment and the zone x alarm-level matrix
// on three sheets. Links are matched to rows by canonical code.
func MatrixWorkbook(zones []entity.Zone, equipment []entity.Equipment, links []entity.Link) ([]byte, error) {
	type levels struct{ al1, al2 []string }
	byZone := map[string]*levels{}
	zonesOf := map[string][]string{}
	for _, l := range links {
		zk := matrix.CanonicalCode(l.ZoneCode)
		lv := byZone[zk]
		if lv == nil {
			lv = &levels{}
			byZone[zk] = lv
		}
		if l.AlarmLevel == constants.AlarmLevel2 {
			lv.al2 = append(lv.al2, l.EquipmentCode)
		} else {
			lv.al1 = append(lv.al1, l.EquipmentCode)
		}
		ek := matrix.CanonicalCode(l.EquipmentCode)
		zonesOf[ek] = appendUnique(zonesOf[ek], l.ZoneCode)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The default sheet is renamed rather than left empty.
	if err := f.SetSheetName(f.GetSheetName(0), SheetZones); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetEquipment, SheetMatrix} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	zoneRows := make([][]any, 0, len(zones))
	matrixRows := make([][]any, 0, len(zones)+1)
	var total1, total2 int
	for _, z := range zones {
		lv := byZone[matrix.CanonicalCode(z.Code)]
		if lv == nil {
			lv = &levels{}
		}
		zoneRows = append(zoneRows, []any{
			z.Code, z.Name, z.Building, z.Floor, z.DetectorRange, len(z.Detectors()),
			strings.Join(lv.al1, ", "), strings.Join(lv.al2, ", "),
		})
		matrixRows = append(matrixRows, []any{z.Code, z.Name, len(lv.al1), len(lv.al2), len(lv.al1) + len(lv.al2)})
		total1 += len(lv.al1)
		total2 += len(lv.al2)
	}
	matrixRows = append(matrixRows, []any{"TOTAL", "", total1, total2, total1 + total2})

	equipmentRows := make([][]any, 0, len(equipment))
	for _, e := range equipment {
		linked := zonesOf[matrix.CanonicalCode(e.Code)]
		sort.Strings(linked)
		equipmentRows = append(equipmentRows, []any{
			e.Code, e.Name, string(e.Type), e.Location, e.ExternalSystem, e.ExternalID, strings.Join(linked, ", "),
		})
	}

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
		widths  []float64
	}{
		{SheetZones, []string{"Code", "Name", "Building", "Floor", "Detectors", "Detector Count", "AL1", "AL2"}, zoneRows,
			[]float64{10, 28, 12, 10, 22, 14, 40, 40}},
		{SheetEquipment, []string{"Code", "Name", "Type", "Location", "External System", "External ID", "Zones"}, equipmentRows,
			[]float64{12, 36, 18, 22, 16, 14, 40}},
		{SheetMatrix, []string{"Zone", "Name", "AL1", "AL2", "Total"}, matrixRows,
			[]float64{10, 28, 8, 8, 8}},
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.headers, sh.rows); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sh.name, err)
		}
		for i, w := range sh.widths {
			col, _ := excelize.ColumnNumberToName(i + 1)
			_ = f.SetColWidth(sh.name, col, col, w)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// FromCandidates converts an unpersisted proposal into rows MatrixWorkbook can lay out.
func FromCandidates(c matrix.Candidates) ([]entity.Zone, []entity.Equipment, []entity.Link) {
	zones := make([]entity.Zone, 0, len(c.Zones))
	for _, z := range c.Zones {
		zones = append(zones, entity.Zone{
			Code: z.Code, Name: z.Name, Building: z.Building, Floor: z.Floor,
			AccessPoint: z.AccessPoint, DetectorRange: z.DetectorRange, DetectorKind: z.Kind,
		})
	}
	equipment := make([]entity.Equipment, 0, len(c.Equipment))
	for _, e := range c.Equipment {
		equipment = append(equipment, entity.Equipment{Code: e.Code, Name: e.Name, Type: e.Type, Location: e.Location})
	}
	links := make([]entity.Link, 0, len(c.Links))
	for _, l := range c.Links {
		links = append(links, entity.Link{ZoneCode: l.ZoneCode, EquipmentCode: l.EquipmentCode, AlarmLevel: l.AlarmLevel, Action: l.Action})
	}
	return zones, equipment, links
}
