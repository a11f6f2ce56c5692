// SPDX-License-Identifier: GPL-3.0-or-later

// Package agent exposes a Node to local applications and operators over a
// RESTful HTTP interface.
package agent
