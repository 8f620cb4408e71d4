// Package outline turns text documents into starter slide decks. Each
// supported format is reduced to cleaned plain text, then split into
// slides along paragraph boundaries.
package outline

import (
	"bytes"
	"fmt"
	"strings"

	goexcel "github.com/VantageDataChat/GoExcel"
	gopdf "github.com/VantageDataChat/GoPDF2"
	goword "github.com/VantageDataChat/GoWord"
	"github.com/shakinm/xlsReader/xls"
)

// ExtractText reduces a document buffer to plain text. fileType is one of
// "word", "pdf", "excel", or "excel_legacy".
func ExtractText(data []byte, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "word":
		return extractWord(data)
	case "pdf":
		return extractPDF(data)
	case "excel":
		return extractExcel(data)
	case "excel_legacy":
		return extractXLS(data)
	default:
		return "", fmt.Errorf("unsupported outline document type: %s", fileType)
	}
}

func extractWord(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("word parse error: %v", r)
		}
	}()

	doc, err := goword.OpenFromBytes(data)
	if err != nil {
		return "", fmt.Errorf("word parse error: %w", err)
	}
	return CleanText(doc.ExtractText()), nil
}

func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parse error: %v", r)
		}
	}()

	if len(data) < 5 || string(data[:5]) != "%PDF-" {
		return "", fmt.Errorf("pdf parse error: missing file signature")
	}
	pageCount, err := gopdf.GetSourcePDFPageCountFromBytes(data)
	if err != nil {
		return "", fmt.Errorf("pdf parse error: %w", err)
	}

	var sb strings.Builder
	for i := 0; i < pageCount; i++ {
		pageText, err := gopdf.ExtractPageText(data, i)
		if err != nil || pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}
	return CleanText(sb.String()), nil
}

// extractExcel flattens workbook cells into "Sheet-Row,Col: value" lines,
// one sheet after another.
func extractExcel(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("excel parse error: %v", r)
		}
	}()

	reader := goexcel.NewXLSXReader()
	wb, err := reader.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("excel parse error: %w", err)
	}

	var sb strings.Builder
	for _, name := range wb.GetSheetNames() {
		sheet, err := wb.GetSheetByName(name)
		if err != nil {
			continue
		}
		rows, err := sheet.RowIterator()
		if err != nil {
			continue
		}
		for rowIdx, row := range rows {
			for _, cell := range row {
				if cell == nil || cell.IsEmpty() {
					continue
				}
				val := cell.GetFormattedValue()
				if val == "" {
					continue
				}
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(fmt.Sprintf("%s-%d,%d: %s", name, rowIdx+1, cell.Col()+1, val))
			}
		}
	}
	return CleanText(sb.String()), nil
}

// extractXLS handles pre-2007 BIFF workbooks.
func extractXLS(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("xls parse error: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("xls parse error: %w", err)
	}

	var sb strings.Builder
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil {
			continue
		}
		sheetName := sheet.GetName()
		for rowIdx := 0; rowIdx < sheet.GetNumberRows(); rowIdx++ {
			row, err := sheet.GetRow(rowIdx)
			if err != nil || row == nil {
				continue
			}
			for colIdx, cell := range row.GetCols() {
				val := strings.TrimSpace(cell.GetString())
				if val == "" {
					continue
				}
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(fmt.Sprintf("%s-%d,%d: %s", sheetName, rowIdx+1, colIdx+1, val))
			}
		}
	}
	return CleanText(sb.String()), nil
}
