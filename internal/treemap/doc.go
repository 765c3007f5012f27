// Package treemap partitions a rectangle into cells whose areas follow
// item sizes, using the squarified layout so cells stay close to square.
//
// Items with a zero or negative size still get a sliver of area so that
// every item has a visible cell.
package treemap
