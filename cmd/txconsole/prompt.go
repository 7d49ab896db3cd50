/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/slievrly/seata/console"
)

// linePrompter asks y/N questions on a terminal
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func (p *linePrompter) Confirm(ctx context.Context, pr console.Prompt) (bool, error) {
	fmt.Fprintf(p.out, "%s\n%s\n", titleStyle.Render(pr.Title), strings.TrimRight(pr.Content, "\n"))
	if p.yes {
		fmt.Fprintln(p.out, "[y/N]: y")
		return true, nil
	}
	fmt.Fprint(p.out, "[y/N]: ")
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
