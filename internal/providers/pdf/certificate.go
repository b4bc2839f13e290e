package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type CertificateData struct {
	AssociationName string
	MemberName      string
	MembershipType  string
	MemberNumber    string
	IdentityNumber  string
	ApprovedDate    string
	IssuedDate      string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateCertificate(ctx context.Context, data CertificateData) (io.Reader, error) {
	cfg := config.NewBuilder().Build()
	m := maroto.New(cfg)

	m.AddRow(30,
		text.NewCol(12, data.AssociationName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
			Top:   10,
		}),
	)

	m.AddRow(20,
		text.NewCol(12, "Certificate of Membership", props.Text{
			Size:  22,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	m.AddRow(15,
		text.NewCol(12, "This certifies that", props.Text{
			Size:  11,
			Align: align.Center,
			Top:   5,
		}),
	)

	m.AddRow(15,
		text.NewCol(12, data.MemberName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	m.AddRow(25,
		col.New(3),
		col.New(6).Add(
			text.New("Membership class: "+data.MembershipType, props.Text{Top: 0, Size: 10}),
			text.New("Member number: "+data.MemberNumber, props.Text{Top: 5, Size: 10}),
			text.New("Registration number: "+data.IdentityNumber, props.Text{Top: 10, Size: 10}),
			text.New("Approved on: "+data.ApprovedDate, props.Text{Top: 15, Size: 10}),
		),
		col.New(3),
	)

	m.AddRow(15,
		text.NewCol(12, "Issued "+data.IssuedDate, props.Text{
			Size:  9,
			Align: align.Center,
			Top:   5,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
