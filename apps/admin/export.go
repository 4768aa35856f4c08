package main

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/grade"
)

// export writes the grades recorded by owner to an XLSX file.
func (cli *commandLine) export(owner, path string, filter *grade.QueryFilter, includePhoto bool) error {
	recs, err := cli.grdSvc.ListByOwner(context.Background(), owner, filter, nil)
	if err != nil {
		return errors.Wrap(err, "listing records")
	}
	data, err := grade.ExportTable(recs, includePhoto)
	if err != nil {
		return errors.Wrap(err, "exporting records")
	}
	if err = ioutil.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing export")
	}
	fmt.Fprintf(cli.out, "%d record(s) exported to %s\n", len(recs), path)
	return nil
}
