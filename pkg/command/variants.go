package command

import "github.com/sacovo/vectord/pkg/index"

// ConnectCommand is the handshake probe: the server's connection loop
// intercepts it before dispatch ever sees it, so Execute is never called
// in practice. It is still a real Command so the wire type registers and
// decodes like every other variant.
type ConnectCommand struct {
	Payload []byte
}

func (c *ConnectCommand) Execute(reg Registry) (any, error) {
	return c.Payload, nil
}

// IndexExistsCommand checks whether an index is registered.
type IndexExistsCommand struct {
	Name string
}

func (c *IndexExistsCommand) Execute(reg Registry) (any, error) {
	return reg.IndexExists(c.Name), nil
}

// CreateIndexCommand registers a new, uninitialized index.
type CreateIndexCommand struct {
	Name  string
	Space string
	Dim   int
}

func (c *CreateIndexCommand) Execute(reg Registry) (any, error) {
	return reg.CreateIndex(c.Name, c.Space, c.Dim)
}

// InitIndexCommand allocates an index's graph storage.
type InitIndexCommand struct {
	Name           string
	MaxElements    int
	EfConstruction int
	M              int
}

func (c *InitIndexCommand) Execute(reg Registry) (any, error) {
	return nil, reg.InitIndex(c.Name, c.MaxElements, c.EfConstruction, c.M)
}

// DeleteIndexCommand removes an index entirely.
type DeleteIndexCommand struct {
	Name string
}

func (c *DeleteIndexCommand) Execute(reg Registry) (any, error) {
	return nil, reg.DeleteIndex(c.Name)
}

// ImportIndexCommand registers a pre-built index wrapper carried over the
// wire as its manifest metadata plus an opaque engine snapshot.
type ImportIndexCommand struct {
	Name string
	Meta index.Meta
	Data []byte
}

func (c *ImportIndexCommand) Execute(reg Registry) (any, error) {
	return nil, reg.ImportIndex(c.Name, c.Meta, c.Data)
}

// AddItemsCommand adds rows to an index under the given labels.
type AddItemsCommand struct {
	Name string
	Data [][]float32
	Ids  []int
}

func (c *AddItemsCommand) Execute(reg Registry) (any, error) {
	return nil, reg.AddItems(c.Name, c.Data, c.Ids)
}

// SetEFCommand sets an index's query-time search breadth.
type SetEFCommand struct {
	Name  string
	NewEF int
}

func (c *SetEFCommand) Execute(reg Registry) (any, error) {
	return nil, reg.SetEF(c.Name, c.NewEF)
}

// GetEFCommand reads an index's query-time search breadth.
type GetEFCommand struct {
	Name string
}

func (c *GetEFCommand) Execute(reg Registry) (any, error) {
	return reg.GetEF(c.Name)
}

// GetEFConstructionCommand reads an index's construction-time candidate
// breadth.
type GetEFConstructionCommand struct {
	Name string
}

func (c *GetEFConstructionCommand) Execute(reg Registry) (any, error) {
	return reg.GetEFConstruction(c.Name)
}

// QueryIndexCommand finds the k nearest neighbors for each input vector.
type QueryIndexCommand struct {
	Name    string
	Vectors [][]float32
	K       int
}

func (c *QueryIndexCommand) Execute(reg Registry) (any, error) {
	labels, dists, err := reg.QueryIndex(c.Name, c.Vectors, c.K)
	if err != nil {
		return nil, err
	}
	return QueryResult{Labels: labels, Distances: dists}, nil
}

// QueryResult is the tuple a QueryIndexCommand returns: one label list and
// one distance list per input vector.
type QueryResult struct {
	Labels    [][]int
	Distances [][]float32
}

// DeleteItemCommand marks a label as deleted.
type DeleteItemCommand struct {
	Name  string
	Label int
}

func (c *DeleteItemCommand) Execute(reg Registry) (any, error) {
	return nil, reg.DeleteItem(c.Name, c.Label)
}

// ResizeIndexCommand changes an index's capacity.
type ResizeIndexCommand struct {
	Name    string
	NewSize int
}

func (c *ResizeIndexCommand) Execute(reg Registry) (any, error) {
	return nil, reg.ResizeIndex(c.Name, c.NewSize)
}

// MaxElementsCommand reads an index's configured capacity.
type MaxElementsCommand struct {
	Name string
}

func (c *MaxElementsCommand) Execute(reg Registry) (any, error) {
	return reg.MaxElements(c.Name)
}

// CountCommand reads the number of rows stored in an index, logically
// deleted ones included.
type CountCommand struct {
	Name string
}

func (c *CountCommand) Execute(reg Registry) (any, error) {
	return reg.Count(c.Name)
}

// InfoCommand reads an index's full metadata record.
type InfoCommand struct {
	Name string
}

func (c *InfoCommand) Execute(reg Registry) (any, error) {
	return reg.Info(c.Name)
}

// GetIndexesCommand lists every registered index name.
type GetIndexesCommand struct{}

func (c *GetIndexesCommand) Execute(reg Registry) (any, error) {
	return reg.GetIndexes(), nil
}

// GetItemsCommand reads the row vectors for the given labels.
type GetItemsCommand struct {
	Name string
	Ids  []int
}

func (c *GetItemsCommand) Execute(reg Registry) (any, error) {
	return reg.GetItems(c.Name, c.Ids)
}

// GetIdsCommand lists every live label in an index.
type GetIdsCommand struct {
	Name string
}

func (c *GetIdsCommand) Execute(reg Registry) (any, error) {
	return reg.GetIds(c.Name)
}
