package deck

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const (
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relTypeSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	ctPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"
	ctCoreProps    = "application/vnd.openxmlformats-package.core-properties+xml"
	ctExtProps     = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
)

// relationship list parts share one XML shape, serialized with xml structs
// the same way container documents are handled for EPUB archives.
type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Xmlns   string         `xml:"xmlns,attr"`
	Entries []relationship `xml:"Relationship"`
}

type relationship struct {
	Id     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type contentTypes struct {
	XMLName   xml.Name          `xml:"Types"`
	Xmlns     string            `xml:"xmlns,attr"`
	Defaults  []contentDefault  `xml:"Default"`
	Overrides []contentOverride `xml:"Override"`
}

type contentDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

func marshalPart(v any) []byte {
	data, err := xml.Marshal(v)
	if err != nil {
		// all part structs here are static shapes, marshal can only fail on
		// programming error
		panic(err)
	}

	buf := bytes.NewBufferString(xmlHeader)
	buf.Write(data)

	return buf.Bytes()
}

func (d *Deck) contentTypesXML() []byte {
	types := contentTypes{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/content-types",
		Defaults: []contentDefault{
			{"rels", "application/vnd.openxmlformats-package.relationships+xml"},
			{"xml", "application/xml"},
			{"png", "image/png"},
			{"jpeg", "image/jpeg"},
		},
		Overrides: []contentOverride{
			{"/ppt/presentation.xml", ctPresentation},
			{"/ppt/slideMasters/slideMaster1.xml", ctSlideMaster},
			{"/ppt/slideLayouts/slideLayout1.xml", ctSlideLayout},
			{"/ppt/theme/theme1.xml", ctTheme},
			{"/docProps/core.xml", ctCoreProps},
			{"/docProps/app.xml", ctExtProps},
		},
	}

	for i := range d.slides {
		types.Overrides = append(types.Overrides, contentOverride{
			PartName:    fmt.Sprintf("/ppt/slides/slide%d.xml", i+1),
			ContentType: ctSlide,
		})
	}

	return marshalPart(types)
}

func packageRelsXML() []byte {
	rels := relationships{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships",
		Entries: []relationship{
			{"rId1", relTypeOfficeDocument, "ppt/presentation.xml"},
			{"rId2", relTypeCoreProps, "docProps/core.xml"},
			{"rId3", relTypeExtendedProps, "docProps/app.xml"},
		},
	}

	return marshalPart(rels)
}

func (d *Deck) presentationRelsXML() []byte {
	rels := relationships{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships",
		Entries: []relationship{
			{"rId1", relTypeSlideMaster, "slideMasters/slideMaster1.xml"},
		},
	}

	for i := range d.slides {
		rels.Entries = append(rels.Entries, relationship{
			Id:     fmt.Sprintf("rId%d", i+2),
			Type:   relTypeSlide,
			Target: fmt.Sprintf("slides/slide%d.xml", i+1),
		})
	}

	return marshalPart(rels)
}

func slideMasterRelsXML() []byte {
	rels := relationships{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships",
		Entries: []relationship{
			{"rId1", relTypeSlideLayout, "../slideLayouts/slideLayout1.xml"},
			{"rId2", relTypeTheme, "../theme/theme1.xml"},
		},
	}

	return marshalPart(rels)
}

func slideLayoutRelsXML() []byte {
	rels := relationships{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships",
		Entries: []relationship{
			{"rId1", relTypeSlideMaster, "../slideMasters/slideMaster1.xml"},
		},
	}

	return marshalPart(rels)
}

func (d *Deck) slideRelsXML(num int) []byte {
	rels := relationships{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships",
		Entries: []relationship{
			{"rId1", relTypeSlideLayout, "../slideLayouts/slideLayout1.xml"},
			{"rId2", relTypeImage, fmt.Sprintf("../media/image%d.%s", num, d.slides[num-1].imageExt)},
		},
	}

	return marshalPart(rels)
}

func (d *Deck) presentationXML() []byte {
	buf := bytes.NewBufferString(xmlHeader)

	fmt.Fprintf(buf,
		`<p:presentation xmlns:a=%q xmlns:r=%q xmlns:p=%q>`,
		nsDrawing, nsRelationships, nsPresentation,
	)
	buf.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)

	buf.WriteString(`<p:sldIdLst>`)
	for i := range d.slides {
		fmt.Fprintf(buf, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	buf.WriteString(`</p:sldIdLst>`)

	fmt.Fprintf(buf, `<p:sldSz cx="%d" cy="%d"/>`, d.slideWidthEMU, d.slideHeightEMU)
	buf.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	buf.WriteString(`</p:presentation>`)

	return buf.Bytes()
}

// slideXML builds one picture slide. The picture is stretched to cover the
// whole slide, page rasters already share the slide's aspect ratio.
func (d *Deck) slideXML(num int) []byte {
	buf := bytes.NewBufferString(xmlHeader)

	fmt.Fprintf(buf,
		`<p:sld xmlns:a=%q xmlns:r=%q xmlns:p=%q>`,
		nsDrawing, nsRelationships, nsPresentation,
	)
	buf.WriteString(`<p:cSld><p:spTree>`)
	buf.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	buf.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)

	buf.WriteString(`<p:pic>`)
	fmt.Fprintf(buf, `<p:nvPicPr><p:cNvPr id="2" name="Page %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`, num)
	buf.WriteString(`<p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`)
	fmt.Fprintf(buf,
		`<p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`,
		d.slideWidthEMU, d.slideHeightEMU,
	)
	buf.WriteString(`</p:pic>`)

	buf.WriteString(`</p:spTree></p:cSld>`)
	buf.WriteString(`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`)
	buf.WriteString(`</p:sld>`)

	return buf.Bytes()
}

func emptySpTree() string {
	return `<p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		`</p:spTree>`
}

func slideMasterXML() []byte {
	buf := bytes.NewBufferString(xmlHeader)

	fmt.Fprintf(buf,
		`<p:sldMaster xmlns:a=%q xmlns:r=%q xmlns:p=%q>`,
		nsDrawing, nsRelationships, nsPresentation,
	)
	buf.WriteString(`<p:cSld>`)
	buf.WriteString(`<p:bg><p:bgPr><a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`)
	buf.WriteString(emptySpTree())
	buf.WriteString(`</p:cSld>`)
	buf.WriteString(`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`)
	buf.WriteString(`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>`)
	buf.WriteString(`</p:sldMaster>`)

	return buf.Bytes()
}

func slideLayoutXML() []byte {
	buf := bytes.NewBufferString(xmlHeader)

	fmt.Fprintf(buf,
		`<p:sldLayout xmlns:a=%q xmlns:r=%q xmlns:p=%q type="blank" preserve="1">`,
		nsDrawing, nsRelationships, nsPresentation,
	)
	buf.WriteString(`<p:cSld name="Blank">`)
	buf.WriteString(emptySpTree())
	buf.WriteString(`</p:cSld>`)
	buf.WriteString(`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`)
	buf.WriteString(`</p:sldLayout>`)

	return buf.Bytes()
}

// themeXML emits a minimal office theme. Picture only slides never reference
// theme colors or fonts, but the part itself is required by the package
// structure.
func themeXML() []byte {
	buf := bytes.NewBufferString(xmlHeader)

	fmt.Fprintf(buf, `<a:theme xmlns:a=%q name="Office Theme">`, nsDrawing)
	buf.WriteString(`<a:themeElements>`)

	buf.WriteString(`<a:clrScheme name="Office">`)
	colors := [][2]string{
		{"dk1", "000000"}, {"lt1", "FFFFFF"}, {"dk2", "44546A"}, {"lt2", "E7E6E6"},
		{"accent1", "4472C4"}, {"accent2", "ED7D31"}, {"accent3", "A5A5A5"},
		{"accent4", "FFC000"}, {"accent5", "5B9BD5"}, {"accent6", "70AD47"},
		{"hlink", "0563C1"}, {"folHlink", "954F72"},
	}
	for _, c := range colors {
		fmt.Fprintf(buf, `<a:%s><a:srgbClr val="%s"/></a:%s>`, c[0], c[1], c[0])
	}
	buf.WriteString(`</a:clrScheme>`)

	buf.WriteString(`<a:fontScheme name="Office">`)
	buf.WriteString(`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>`)
	buf.WriteString(`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>`)
	buf.WriteString(`</a:fontScheme>`)

	buf.WriteString(`<a:fmtScheme name="Office">`)
	buf.WriteString(`<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>`)
	buf.WriteString(`<a:lnStyleLst><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>`)
	buf.WriteString(`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>`)
	buf.WriteString(`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>`)
	buf.WriteString(`</a:fmtScheme>`)

	buf.WriteString(`</a:themeElements>`)
	buf.WriteString(`</a:theme>`)

	return buf.Bytes()
}

func (d *Deck) corePropsXML() []byte {
	buf := bytes.NewBufferString(xmlHeader)

	created := nowFunc().UTC().Format("2006-01-02T15:04:05Z")

	buf.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	fmt.Fprintf(buf, `<dc:title>%s</dc:title>`, xmlEscape(d.title))
	buf.WriteString(`<dc:creator>deckwash</dc:creator>`)
	fmt.Fprintf(buf, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, created)
	buf.WriteString(`</cp:coreProperties>`)

	return buf.Bytes()
}

func (d *Deck) appPropsXML() []byte {
	buf := bytes.NewBufferString(xmlHeader)

	buf.WriteString(`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">`)
	buf.WriteString(`<Application>deckwash</Application>`)
	fmt.Fprintf(buf, `<Slides>%d</Slides>`, len(d.slides))
	buf.WriteString(`</Properties>`)

	return buf.Bytes()
}

func xmlEscape(s string) string {
	buf := bytes.NewBuffer(nil)
	_ = xml.EscapeText(buf, []byte(s))
	return buf.String()
}
